// Package contextutil carries the request-scoped logger through contexts
// so every layer logs with the request's method, path, and remote address
// attached.
package contextutil

import (
	"context"
	"log/slog"
)

type contextKey string

const loggerKey contextKey = "logger"

// LoggerFromContext returns the request-scoped logger stored by the HTTP
// middleware. Outside a request (startup, background reindex) there is
// none, so it falls back to slog.Default and never returns nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctxLogger := ctx.Value(loggerKey); ctxLogger != nil {
		if l, ok := ctxLogger.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// LoggerKey exposes the context key so the middleware that stores the
// logger and this accessor agree on it.
func LoggerKey() contextKey {
	return loggerKey
}
