package domain

import "errors"

// Cell represents a board cell state.
type Cell uint8

const (
    Empty Cell = iota
    X
    O
)

func (c Cell) String() string {
    switch c {
    case X:
        return "X"
    case O:
        return "O"
    default:
        return ""
    }
}

// Other returns the opposing symbol. Empty has no opponent.
func (c Cell) Other() Cell {
    switch c {
    case X:
        return O
    case O:
        return X
    default:
        return Empty
    }
}

// Size is the number of positions on the board.
const Size = 9

// Board is a fixed 3x3 board stored row-major, positions 0..8.
type Board [Size]Cell

// Full reports whether no cell is Empty.
func (b Board) Full() bool {
    for _, c := range b {
        if c == Empty {
            return false
        }
    }
    return true
}

// Line is a triple of board positions.
type Line [3]int

var lines = [8]Line{
    // rows
    {0, 1, 2}, {3, 4, 5}, {6, 7, 8},
    // cols
    {0, 3, 6}, {1, 4, 7}, {2, 5, 8},
    // diags
    {0, 4, 8}, {2, 4, 6},
}

// Lines returns the winning lines in evaluation order.
func Lines() [8]Line { return lines }

// Contains reports whether pos is one of the line's positions.
func (l Line) Contains(pos int) bool {
    return l[0] == pos || l[1] == pos || l[2] == pos
}

// Status is the lifecycle state of a game.
type Status uint8

const (
    InProgress Status = iota
    Won
    Draw
)

func (s Status) String() string {
    switch s {
    case Won:
        return "won"
    case Draw:
        return "draw"
    default:
        return "in_progress"
    }
}

// Rejection reasons carried by a rejected Outcome.
var (
    ErrOutOfBounds = errors.New("out of bounds")
    ErrOccupied    = errors.New("cell occupied")
    ErrGameOver    = errors.New("game over")
)

// OutcomeKind classifies the result of a submitted move.
type OutcomeKind uint8

const (
    Rejected OutcomeKind = iota
    Continue
    Win
    Drawn
)

func (k OutcomeKind) String() string {
    switch k {
    case Continue:
        return "continue"
    case Win:
        return "win"
    case Drawn:
        return "draw"
    default:
        return "rejected"
    }
}

// Outcome is the result of SubmitMove.
//
// Player is the side to move next for Continue and the winner for Win.
// Line is only meaningful for Win. Reason is only set for Rejected.
type Outcome struct {
    Kind   OutcomeKind
    Player Cell
    Line   Line
    Reason error
}

// Accepted reports whether the move changed the game.
func (o Outcome) Accepted() bool { return o.Kind != Rejected }

// Game holds the current state of a Tic-Tac-Toe match. The zero value is not
// ready for use; construct with New.
type Game struct {
    board  Board
    turn   Cell
    status Status
    winner Cell
    line   int
    moves  int
}

// New returns a new game with X to move.
func New() Game {
    return Game{turn: X, line: -1}
}

// Restart resets the board, gives the move back to X and reopens play.
// It is valid from any state.
func (g *Game) Restart() {
    *g = New()
}

// SubmitMove plays the current turn at pos (0..8). Invalid moves leave the
// game untouched and come back as a Rejected outcome.
func (g *Game) SubmitMove(pos int) Outcome {
    if g.status != InProgress {
        return Outcome{Kind: Rejected, Reason: ErrGameOver}
    }
    if pos < 0 || pos >= Size {
        return Outcome{Kind: Rejected, Reason: ErrOutOfBounds}
    }
    if g.board[pos] != Empty {
        return Outcome{Kind: Rejected, Reason: ErrOccupied}
    }

    // Place the mark
    g.board[pos] = g.turn
    g.moves++

    // Check for a win
    if i := winningLine(g.board, g.turn); i >= 0 {
        g.status = Won
        g.winner = g.turn
        g.line = i
        return Outcome{Kind: Win, Player: g.turn, Line: lines[i]}
    }

    // Check for draw
    if g.board.Full() {
        g.status = Draw
        return Outcome{Kind: Drawn}
    }

    g.turn = g.turn.Other()
    return Outcome{Kind: Continue, Player: g.turn}
}

// Message is the status text shown to players.
func (g Game) Message() string {
    switch g.status {
    case Won:
        return "Player " + g.winner.String() + " has won!"
    case Draw:
        return "Game ended in a draw!"
    default:
        return "It's " + g.turn.String() + "'s turn"
    }
}

// Active reports whether moves are still accepted.
func (g Game) Active() bool { return g.status == InProgress }

// Board returns a copy of the cells.
func (g Game) Board() Board { return g.board }

// Turn is the side to move; after a win it stays on the winner.
func (g Game) Turn() Cell { return g.turn }

// Status reports whether the game is in progress, won or drawn.
func (g Game) Status() Status { return g.status }

// Moves counts accepted moves since the last restart.
func (g Game) Moves() int { return g.moves }

// Winner is Empty unless the game was won.
func (g Game) Winner() Cell { return g.winner }

// WinningLine returns the completed line of a won game.
func (g Game) WinningLine() (Line, bool) {
    if g.status != Won || g.line < 0 {
        return Line{}, false
    }
    return lines[g.line], true
}

// winningLine returns the index of the first line fully held by side, or -1.
func winningLine(b Board, side Cell) int {
    for i, ln := range lines {
        if b[ln[0]] == side && b[ln[1]] == side && b[ln[2]] == side {
            return i
        }
    }
    return -1
}
