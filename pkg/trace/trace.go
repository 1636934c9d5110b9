package trace

import (
	"context"

	"github.com/google/uuid"
)

type traceIDKey struct{}

// HeaderName is the HTTP header carrying the trace ID.
const HeaderName = "X-Trace-ID"

// GenerateTraceID returns a new trace ID.
func GenerateTraceID() string {
	return uuid.NewString()
}

// FromContext returns the trace ID stored in ctx, if any.
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}
	return ""
}

// WithContext stores traceID in ctx.
func WithContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// Ensure returns ctx unchanged when it already carries a trace id, otherwise a
// copy carrying a fresh one.
func Ensure(ctx context.Context) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := GenerateTraceID()
	return WithContext(ctx, id), id
}
