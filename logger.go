package annex

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with annex-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogAdd logs a batch insert operation.
func (l *Logger) LogAdd(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"count", count,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, requested, removed int) {
	l.DebugContext(ctx, "delete completed",
		"requested", requested,
		"removed", removed,
	)
}

// LogSnapshot logs a snapshot save or restore.
func (l *Logger) LogSnapshot(ctx context.Context, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"entries", entries,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"entries", entries,
		)
	}
}
