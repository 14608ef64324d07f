package middleware

import (
	"net/http"
	"time"

	"aircrew/pkg/requestcontext"
)

// RequestTime pins the current time at the start of the request so every
// evaluation within it sees the same "now".
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
