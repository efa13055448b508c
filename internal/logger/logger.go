// Package logger builds the structured logger shared by rulesynth commands.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/solatis/rulesynth/internal/core/config"
)

// ServiceName is attached to every log line.
const ServiceName = "rulesynth"

// New returns a logger writing to stderr so generated rules can own stdout.
func New(cfg config.LogConfig, version string) *slog.Logger {
	return NewWithWriter(cfg, version, os.Stderr)
}

// NewWithWriter returns a logger writing to w. Unknown formats fall back to JSON.
func NewWithWriter(cfg config.LogConfig, version string, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("service", ServiceName),
		slog.String("version", version),
	)
}

// ParseLevel converts a level name to slog.Level. Defaults to INFO.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
