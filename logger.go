package jobmem

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with jobmem-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithID adds a buffer id field to the logger.
func (l *Logger) WithID(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", id),
	}
}

// WithScope adds a scope field to the logger.
func (l *Logger) WithScope(scope string) *Logger {
	return &Logger{
		Logger: l.Logger.With("scope", scope),
	}
}

// LogAllocate logs a buffer allocation.
func (l *Logger) LogAllocate(ctx context.Context, id uint64, scope string, capacity int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "allocate failed",
			"scope", scope,
			"capacity", capacity,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "allocate completed",
			"id", id,
			"scope", scope,
			"capacity", capacity,
		)
	}
}

// LogRelease logs a synchronous or deferred buffer release.
func (l *Logger) LogRelease(ctx context.Context, id uint64, scope string, deferred bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "release failed",
			"id", id,
			"scope", scope,
			"deferred", deferred,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "release completed",
			"id", id,
			"scope", scope,
			"deferred", deferred,
		)
	}
}

// LogLeak logs a buffer that became unreachable without being released.
func (l *Logger) LogLeak(ctx context.Context, id uint64, scope string, capacity int) {
	l.WarnContext(ctx, "buffer leaked: garbage collected without release",
		"id", id,
		"scope", scope,
		"capacity", capacity,
	)
}

// LogFrameEnd logs the end of an ephemeral frame.
func (l *Logger) LogFrameEnd(ctx context.Context, reclaimed int) {
	l.DebugContext(ctx, "frame ended",
		"reclaimed", reclaimed,
	)
}
