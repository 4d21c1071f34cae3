// Package console is a terminal front end for hot-seat play on one engine.
package console

import (
    "bufio"
    "context"
    "fmt"
    "io"
    "strconv"
    "strings"

    "github.com/jaminalder/tictactoe/internal/domain"
    "github.com/muesli/termenv"
)

// Colours carried over from the browser version.
const (
    colorX      = "#FDD835"
    colorO      = "#FF5722"
    colorStatus = "#FDD835"
)

// Console reads commands from in and renders the game to out.
type Console struct {
    in   *bufio.Scanner
    out  *termenv.Output
    game domain.Game
}

// New returns a console with a fresh game.
func New(in io.Reader, out *termenv.Output) *Console {
    return &Console{in: bufio.NewScanner(in), out: out, game: domain.New()}
}

// Game returns a copy of the current game.
func (c *Console) Game() domain.Game { return c.game }

// Run plays until the input ends, the user quits, or ctx is done.
func (c *Console) Run(ctx context.Context) error {
    ctx, cancel := context.WithCancel(ctx)
    defer cancel()
    lines, errc := c.readLines(ctx)

    c.render()
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        fmt.Fprint(c.out, "> ")
        select {
        case <-ctx.Done():
            fmt.Fprintln(c.out)
            return ctx.Err()
        case line, ok := <-lines:
            if !ok {
                fmt.Fprintln(c.out)
                return <-errc
            }
            if quit := c.handle(strings.TrimSpace(line)); quit {
                return nil
            }
        }
    }
}

// readLines scans input on its own goroutine so a blocked read never holds
// up cancellation. errc receives exactly one value before lines is closed.
func (c *Console) readLines(ctx context.Context) (<-chan string, <-chan error) {
    lines := make(chan string)
    errc := make(chan error, 1)
    go func() {
        defer close(lines)
        for c.in.Scan() {
            select {
            case lines <- c.in.Text():
            case <-ctx.Done():
                errc <- ctx.Err()
                return
            }
        }
        errc <- c.in.Err()
    }()
    return lines, errc
}

// handle applies one input line and reports whether the user asked to quit.
func (c *Console) handle(line string) bool {
    switch strings.ToLower(line) {
    case "q", "quit":
        fmt.Fprintln(c.out, "Bye.")
        return true
    case "r", "restart":
        c.game.Restart()
        c.render()
        return false
    case "":
        return false
    }

    pos, err := strconv.Atoi(line)
    if err != nil {
        pos = -1
    }
    out := c.game.SubmitMove(pos)
    if !out.Accepted() {
        fmt.Fprintf(c.out, "Move rejected: %v\n", out.Reason)
        return false
    }
    c.render()
    if !c.game.Active() {
        fmt.Fprintln(c.out, "Type r to play again or q to quit.")
    }
    return false
}

func (c *Console) render() {
    board := c.game.Board()
    line, won := c.game.WinningLine()
    for r := 0; r < 3; r++ {
        cells := make([]string, 3)
        for col := 0; col < 3; col++ {
            i := r*3 + col
            cells[col] = c.cell(i, board[i], won && line.Contains(i))
        }
        fmt.Fprintf(c.out, " %s | %s | %s\n", cells[0], cells[1], cells[2])
        if r < 2 {
            fmt.Fprintln(c.out, "---+---+---")
        }
    }
    status := c.out.String(c.game.Message())
    if !c.game.Active() {
        status = status.Foreground(c.out.Color(colorStatus)).Bold()
    }
    fmt.Fprintln(c.out, status.String())
}

// cell renders one position; empty cells show their index so players know
// what to type.
func (c *Console) cell(i int, v domain.Cell, winning bool) string {
    var s termenv.Style
    switch v {
    case domain.X:
        s = c.out.String("X").Foreground(c.out.Color(colorX))
    case domain.O:
        s = c.out.String("O").Foreground(c.out.Color(colorO))
    default:
        return c.out.String(strconv.Itoa(i)).Faint().String()
    }
    if winning {
        s = s.Bold().Underline()
    }
    return s.String()
}
