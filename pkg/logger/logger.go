// Package logger provides the slog handler used by the fix tool. Errors
// are red, warnings yellow and applied mutations green, so a long batch
// run can be skimmed for the lines that touched the graph.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a logger writing colored output to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewDefault creates a logger writing to stderr.
func NewDefault(level slog.Level) *slog.Logger {
	return New(os.Stderr, level)
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
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
