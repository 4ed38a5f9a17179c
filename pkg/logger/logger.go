// Package logger builds the application's slog.Logger from environment
// configuration: JSON output for production aggregation, text for local
// development, with static service attributes on every record.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config is the environment-driven logger configuration.
type Config struct {
	Level   string `env:"LOG_LEVEL" envDefault:"info"`   // debug, info, warn, error
	Format  string `env:"LOG_FORMAT" envDefault:"json"`  // json or text
	Service string `env:"LOG_SERVICE" envDefault:"fleetgrid"`
}

// New creates a logger from config, writing to the given output
// (os.Stderr when nil). Invalid levels or formats fail startup rather
// than silently logging at the wrong level.
func New(cfg Config, out io.Writer) (*slog.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("logger: unknown level %q", cfg.Level)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json", "":
		handler = slog.NewJSONHandler(out, opts)
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
	}

	log := slog.New(handler)
	if cfg.Service != "" {
		log = log.With(slog.String("service", cfg.Service))
	}
	return log, nil
}

// MustNew is New that panics on invalid configuration.
func MustNew(cfg Config, out io.Writer) *slog.Logger {
	log, err := New(cfg, out)
	if err != nil {
		panic(err)
	}
	return log
}
