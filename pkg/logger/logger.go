// Package logger defines the key/value Logger used across the service and
// carries request-scoped loggers through contexts.
package logger

import (
	"context"
)

type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Fatal(msg string, keysAndValues ...any)
	// With returns a Logger that adds keysAndValues to every entry.
	With(keysAndValues ...any) Logger
}

type noOpLogger struct{}

func (n noOpLogger) Debug(string, ...any) {}
func (n noOpLogger) Info(string, ...any)  {}
func (n noOpLogger) Warn(string, ...any)  {}
func (n noOpLogger) Error(string, ...any) {}
func (n noOpLogger) Fatal(string, ...any) {}
func (n noOpLogger) With(...any) Logger   { return n }

func NewNoOp() Logger {
	return noOpLogger{}
}

type ctxKey struct{}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithLogger, or a no-op logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	return noOpLogger{}
}
