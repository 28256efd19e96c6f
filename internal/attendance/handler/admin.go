package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gymdesk/internal/attendance/sweeper"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/httputil"
	"gymdesk/pkg/platform/middleware/admin"
	"gymdesk/pkg/requestcontext"
)

// Sweeps runs reconciliation passes on demand.
type Sweeps interface {
	AutoCheckoutPass(ctx context.Context) (sweeper.PassResult, error)
	StaleCleanupPass(ctx context.Context) (sweeper.PassResult, error)
	ExpireDayPasses(ctx context.Context) (int, error)
}

// AdminHandler exposes operator endpoints guarded by the admin token.
type AdminHandler struct {
	sweeps Sweeps
	token  string
	logger *slog.Logger
}

func NewAdmin(sweeps Sweeps, token string, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{sweeps: sweeps, token: token, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/admin/sweeps", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.token, h.logger))
		r.Post("/auto-checkout", h.HandleAutoCheckout)
		r.Post("/stale-cleanup", h.HandleStaleCleanup)
		r.Post("/day-pass-expiry", h.HandleDayPassExpiry)
	})
}

// HandleAutoCheckout handles POST /admin/sweeps/auto-checkout.
func (h *AdminHandler) HandleAutoCheckout(w http.ResponseWriter, r *http.Request) {
	h.runPass(w, r, sweeper.PassAutoCheckout, h.sweeps.AutoCheckoutPass)
}

// HandleStaleCleanup handles POST /admin/sweeps/stale-cleanup.
func (h *AdminHandler) HandleStaleCleanup(w http.ResponseWriter, r *http.Request) {
	h.runPass(w, r, sweeper.PassStaleCleanup, h.sweeps.StaleCleanupPass)
}

// HandleDayPassExpiry handles POST /admin/sweeps/day-pass-expiry.
func (h *AdminHandler) HandleDayPassExpiry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := h.sweeps.ExpireDayPasses(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual sweep failed",
			"pass", sweeper.PassDayPassExpiry,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "sweep failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"expired": count})
}

func (h *AdminHandler) runPass(w http.ResponseWriter, r *http.Request, pass string, run func(context.Context) (sweeper.PassResult, error)) {
	ctx := r.Context()
	result, err := run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "manual sweep failed",
			"pass", pass,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "sweep failed"))
		return
	}
	h.logger.InfoContext(ctx, "manual sweep finished",
		"pass", pass,
		"closed", result.Closed,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
