// Package logging builds the structured loggers used by the command line
// tools. It wraps the standard library's log/slog package.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls logger construction.
type Options struct {
	// Verbose lowers the level to debug regardless of LOG_LEVEL.
	Verbose bool

	// JSON selects JSON output instead of text.
	JSON bool
}

// New creates a logger writing to w.
//
// The level comes from the LOG_LEVEL environment variable (debug, info,
// warn, error; default warn, so normal runs stay quiet). Verbose forces
// debug. LOG_FORMAT=json selects JSON output as well.
func New(w io.Writer, opts Options) *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	var handler slog.Handler
	if opts.JSON || strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog level. Unknown names yield warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
