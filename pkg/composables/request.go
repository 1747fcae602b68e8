package composables

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	loggerKey       contextKey = "logger"
	requestIDKey    contextKey = "request-id"
	requestStartKey contextKey = "request-start"
)

// WithLogger returns a new context carrying a request-scoped logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// UseLogger returns the logger from the context.
// Outside a request it falls back to the standard logger.
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(loggerKey).(*logrus.Entry); ok && logger != nil {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// UseRequestID returns the request id, or "" outside a request.
func UseRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithRequestStart(ctx context.Context, start time.Time) context.Context {
	return context.WithValue(ctx, requestStartKey, start)
}

// UseRequestStart returns when the request started.
// If it is not in the context, the second return value will be false.
func UseRequestStart(ctx context.Context) (time.Time, bool) {
	start, ok := ctx.Value(requestStartKey).(time.Time)
	return start, ok
}
