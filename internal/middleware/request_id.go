package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type requestContextKey string

const requestIDKey requestContextKey = "requestID"

// RequestIDMiddleware tags each request with a UUID and echoes it in the
// X-Request-ID response header. An inbound X-Request-ID is reused only when
// it is itself a valid UUID, so arbitrary client strings never reach the logs.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
