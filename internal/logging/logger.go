/* internal/logging/logger.go */

package logging

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// Logger returns the package-wide default logger, used whenever a
// request-scoped logger has not been attached to a context.
func Logger() zerolog.Logger { return base }

// SetGlobal replaces the default logger returned by Logger and by
// FromContext when no logger is attached. App's WithLogger option does not
// call it; WithLogger sets a logger for that App only.
func SetGlobal(l zerolog.Logger) { base = l }

type ctxKey int

const loggerKey ctxKey = iota

// ContextWithLogger attaches l to ctx so FromContext can retrieve it.
func ContextWithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or the package default.
func FromContext(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return l
	}
	return base
}

// GenerateCorrelationID produces a fresh per-session or per-request ID.
func GenerateCorrelationID() string { return uuid.NewString() }

// ContextWithCorrelationID attaches id as a "correlation_id" field on every
// log line produced through the returned context's logger.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	l := FromContext(ctx).With().Str("correlation_id", id).Logger()
	return ContextWithLogger(ctx, l)
}
