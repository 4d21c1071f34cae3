package config

import (
    "fmt"
    "io"
    "log/slog"
    "strings"
    "time"

    "github.com/caarlos0/env/v11"
)

// Config holds the server configuration read from the environment.
type Config struct {
    Addr            string        `env:"TICTACTOE_ADDR" envDefault:":8080"`
    LogLevel        string        `env:"TICTACTOE_LOG_LEVEL" envDefault:"info"`
    LogFormat       string        `env:"TICTACTOE_LOG_FORMAT" envDefault:"text"` // "text" or "json"
    Heartbeat       time.Duration `env:"TICTACTOE_SSE_HEARTBEAT" envDefault:"15s"`
    ShutdownTimeout time.Duration `env:"TICTACTOE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
    var cfg Config
    if err := env.Parse(&cfg); err != nil {
        return Config{}, fmt.Errorf("parse env: %w", err)
    }
    return cfg, nil
}

// NewLogger builds a slog logger writing to w in the configured format.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
    opts := &slog.HandlerOptions{Level: ParseLogLevel(c.LogLevel)}
    if strings.EqualFold(c.LogFormat, "json") {
        return slog.New(slog.NewJSONHandler(w, opts))
    }
    return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLogLevel maps a level name to slog.Level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
    switch strings.ToLower(level) {
    case "debug":
        return slog.LevelDebug
    case "warn":
        return slog.LevelWarn
    case "error":
        return slog.LevelError
    default:
        return slog.LevelInfo
    }
}
