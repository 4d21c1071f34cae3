package main

import (
    "context"
    "fmt"
    "os"
    "os/signal"
    "syscall"

    "github.com/jaminalder/tictactoe/internal/console"
    "github.com/muesli/termenv"
)

func main() {
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    out := termenv.NewOutput(os.Stdout)
    fmt.Fprintln(out, "Enter a cell 0-8, r to restart, q to quit.")
    if err := console.New(os.Stdin, out).Run(ctx); err != nil && ctx.Err() == nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}
