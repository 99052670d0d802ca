package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const (
	// loggerKey is the context key for the logger.
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}

	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}

	return Default()
}

// Ctx returns a logger from the context or the default logger.
// This is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := FromContext(ctx)
	newLogger := logger.With().Interface(key, value).Logger()
	return WithLogger(ctx, &newLogger)
}

// WithEndpoint adds the dataset endpoint to the logger in the context.
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	logger := FromContext(ctx)
	newLogger := logger.With().Str("endpoint", endpoint).Logger()
	return WithLogger(ctx, &newLogger)
}

// WithTable adds the store table name to the logger in the context.
func WithTable(ctx context.Context, table string) context.Context {
	logger := FromContext(ctx)
	newLogger := logger.With().Str("table", table).Logger()
	return WithLogger(ctx, &newLogger)
}

// WithRecord adds a record identity to the logger in the context.
func WithRecord(ctx context.Context, id int64) context.Context {
	logger := FromContext(ctx)
	newLogger := logger.With().Int64("record_id", id).Logger()
	return WithLogger(ctx, &newLogger)
}

// WithCycle adds a refresh-cycle sequence number to the logger in the context.
func WithCycle(ctx context.Context, cycle uint64) context.Context {
	logger := FromContext(ctx)
	newLogger := logger.With().Uint64("cycle", cycle).Logger()
	return WithLogger(ctx, &newLogger)
}
