package logger

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	runIDKey  contextKey = "run_id"
	loggerKey contextKey = "logger"
)

// WithLogger adds logger to context
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRunID adds the poller run ID to context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run ID stored in ctx, if any
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext extracts the logger from context, adding the run ID when present.
// A context without a logger yields a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok || l == nil {
		l = zap.NewNop()
	}

	if runID := RunIDFromContext(ctx); runID != "" {
		l = l.With(zap.String("run_id", runID))
	}

	return l
}

// WithCycle creates a logger with the poll cycle number
func WithCycle(l *zap.Logger, cycle uint64) *zap.Logger {
	return l.With(zap.Uint64("cycle", cycle))
}

// Common field helpers

// DurationField returns a zap field for a duration in milliseconds
func DurationField(d time.Duration) zap.Field {
	return zap.Int64("duration_ms", d.Milliseconds())
}

// MaskSecret returns a loggable preview of a secret value such as a session cookie
func MaskSecret(secret string) string {
	const visible = 4
	if len(secret) <= visible {
		return "****"
	}
	return secret[:visible] + "****"
}
