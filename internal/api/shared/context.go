package shared

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for values this package stores on request contexts.
// A named type keeps other packages from colliding with our keys.
type ContextKey string

const (
	// ClaimsContextKey holds the validated session claims placed on the
	// context by the auth middleware.
	ClaimsContextKey ContextKey = "sessionClaims"

	// TraceIDKey holds the per-request trace ID.
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID stamps ctx with a fresh trace ID. Every log line and error
// response for the request carries the same ID, which is what makes
// cross-referencing them possible.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}

// GetTraceID returns the trace ID stamped on ctx, or the empty string when
// the request never passed through the trace middleware.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}
