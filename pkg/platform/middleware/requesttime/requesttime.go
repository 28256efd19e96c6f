// Package requesttime pins a single "now" for the lifetime of a request so
// admission checks, record timestamps and log lines agree.
package requesttime

import (
	"net/http"
	"time"

	"gymdesk/pkg/requestcontext"
)

// Middleware stamps each request with the wall clock time it arrived.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock stamps each request with now(). Tests pass a fixed clock.
func WithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), now())))
		})
	}
}
