// Package requestcontext provides transport-independent context accessors for
// request-scoped values.
//
// Middleware (and the sweep job) set values; services read them without
// importing net/http. Tests inject a fixed clock with WithTime so evaluation
// results are deterministic.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	chatIDKey      struct{}
	requestTimeKey struct{}
)

// RequestID retrieves the correlation id from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// ChatID retrieves the originating chat id, or 0 for non-chat contexts.
func ChatID(ctx context.Context) int64 {
	if id, ok := ctx.Value(chatIDKey{}).(int64); ok {
		return id
	}
	return 0
}

// WithChatID injects the originating chat id into the context.
func WithChatID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, chatIDKey{}, id)
}

// Now retrieves the pinned time from the context, falling back to time.Now()
// for contexts that never had one set (CLI, ad-hoc calls).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins a specific time in the context. The sweep job pins its start
// time so every evaluation within one pass sees the same day; tests pin
// arbitrary dates.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
