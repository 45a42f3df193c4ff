// Package logging builds the slog loggers used by the command line tools.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"strings"
)

// Logger wraps slog.Logger and owns the writers it was built from.
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// New creates a text Logger writing to every writer at the named level.
// Unknown levels fall back to info.
func New(level string, writers ...io.Writer) (*Logger, error) {
	if len(writers) == 0 {
		return nil, errors.New("at least one log writer is required")
	}
	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = io.MultiWriter(writers...)
	}
	var closers []io.Closer
	for _, w := range writers {
		if c, ok := w.(io.Closer); ok {
			closers = append(closers, c)
		}
	}
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return &Logger{
		Logger:  slog.New(handler),
		closers: closers,
	}, nil
}

// Close closes every writer that implements io.Closer.
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
