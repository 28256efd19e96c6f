// Package admin guards operator endpoints such as on-demand sweeper passes.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/httputil"
	"gymdesk/pkg/requestcontext"
)

const TokenHeader = "X-Admin-Token"

// RequireAdminToken admits requests whose X-Admin-Token matches operatorToken.
// With no operator token configured the endpoints stay closed.
func RequireAdminToken(operatorToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(operatorToken)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(TokenHeader))
			if len(want) > 0 && subtle.ConstantTimeCompare(got, want) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			logger.WarnContext(ctx, "operator endpoint rejected",
				"path", r.URL.Path,
				"token_configured", len(want) > 0,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
		})
	}
}
