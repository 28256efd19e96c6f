package testutil

import (
	"net/http"

	"gymdesk/pkg/requestcontext"
)

// WithStaff attaches an authenticated principal to req, as RequireAuth would.
func WithStaff(req *http.Request, staffID, role string) *http.Request {
	ctx := requestcontext.WithStaff(req.Context(), requestcontext.Principal{ID: staffID, Role: role})
	return req.WithContext(ctx)
}
