package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"aircrew/pkg/requestcontext"
)

// RequestID assigns a correlation id to every request. An inbound
// X-Request-ID is honored so external callers can correlate logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
