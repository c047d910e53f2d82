package common

import (
	"context"
)

type contextKey string

// ContextKeyRequestID carries the correlation id across layers that must
// not depend on the HTTP router.
const ContextKeyRequestID contextKey = "request_id"

// WithRequestID attaches a correlation id to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext returns the correlation id, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}
