// Package logging defines the structured, context-aware logger used across
// gestcard, with slog and zap backends.
package logging

import (
	"context"
	"fmt"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are key-value pairs:
//
//	log.Info(ctx, "account registered", "account_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

type ctxKey struct{}

// ContextWithRequestID stores a request id that both backends attach to
// every record logged with the returned context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

func withRequestID(ctx context.Context, args []any) []any {
	if id, ok := RequestIDFromContext(ctx); ok {
		return append(args, "request_id", id)
	}
	return args
}

// Options selects and tunes a backend.
type Options struct {
	Backend     string // "zap" or "slog"
	Level       string // debug, info, warn, error
	Development bool
}

// New builds the Logger described by opts.
func New(opts Options) (Logger, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "zap":
		return NewZapLogger(opts.Level, opts.Development)
	case "slog":
		return NewSlogJSONLogger(opts.Level)
	default:
		return nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}
