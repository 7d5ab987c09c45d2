package middleware

import (
	"net/http"
	"time"

	"revalid/pkg/requestcontext"
)

// RequestTime captures the wall-clock arrival time of the request into the
// context so every store write within the request observes the same instant.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
