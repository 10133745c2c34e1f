package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/atlas-api/internal/api/shared"
)

// NewTraceMiddleware returns middleware that adds a trace ID to the request
// context. It should be applied early in the middleware chain to ensure that
// all subsequent handlers have access to the trace ID.
func NewTraceMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Add a trace ID to the context
			ctx := shared.SetTraceID(r.Context())

			// Get the trace ID for logging
			traceID := shared.GetTraceID(ctx)

			// Log the incoming request with trace ID
			logger.Debug("request started",
				slog.String("trace_id", traceID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			// Continue with the updated context
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
