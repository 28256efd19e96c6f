// Package requestid copies the chi request id into requestcontext so services
// and the logger can read it without importing chi.
package requestid

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"gymdesk/pkg/requestcontext"
)

// Middleware must run after chi's middleware.RequestID.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		if reqID == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
