package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"gymdesk/internal/attendance/models"
	"gymdesk/internal/attendance/service"
	jwttoken "gymdesk/internal/jwt_token"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/httputil"
	"gymdesk/pkg/platform/middleware/auth"
	"gymdesk/pkg/platform/middleware/metadata"
	"gymdesk/pkg/requestcontext"
)

// Service is the attendance surface the handler exposes.
type Service interface {
	CheckInMember(ctx context.Context, cmd service.CheckInMemberCommand) (*models.AttendanceView, error)
	CheckInDayPass(ctx context.Context, cmd service.CheckInDayPassCommand) (*models.AttendanceView, error)
	CheckInByQR(ctx context.Context, code string) (*models.AttendanceView, error)
	CheckOut(ctx context.Context, cmd service.CheckOutCommand) (*models.AttendanceView, error)
	ForceCheckOut(ctx context.Context, recordID uuid.UUID, reason string) (*models.AttendanceView, error)
	ExtendVisit(ctx context.Context, recordID uuid.UUID, hours int) (*models.AttendanceView, error)
	Get(ctx context.Context, recordID uuid.UUID) (*models.AttendanceView, error)
	Active(ctx context.Context) ([]*models.AttendanceView, error)
	Today(ctx context.Context) ([]*models.AttendanceView, error)
	MemberHistory(ctx context.Context, memberCode string, limit int) ([]*models.AttendanceView, error)
	Filter(ctx context.Context, f models.Filters) ([]*models.AttendanceView, error)
}

// Admission answers eligibility questions without side effects.
type Admission interface {
	ValidateMember(ctx context.Context, memberCode string) models.Validation
	ValidateDayPass(ctx context.Context, passID string) models.Validation
	ResolveQRCode(ctx context.Context, code string) models.QRResolution
}

// Handler wires attendance endpoints to the attendance service.
type Handler struct {
	service   Service
	admission Admission
	validator auth.JWTValidator
	logger    *slog.Logger
	kiosk     []func(http.Handler) http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithKioskMiddleware adds middleware in front of the unauthenticated QR routes.
func WithKioskMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.kiosk = append(h.kiosk, mw...)
	}
}

func New(service Service, admission Admission, validator auth.JWTValidator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:   service,
		admission: admission,
		validator: validator,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts attendance endpoints on the router. QR routes serve the
// unattended kiosk and need no staff token.
func (h *Handler) Register(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.kiosk...)
			r.Post("/check-ins/qr", h.HandleQRCheckIn)
			r.Get("/qr/{code}/validation", h.HandleQRValidation)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(h.validator, h.logger))
			r.Use(auth.RequireRole(h.logger, jwttoken.RoleStaff, jwttoken.RoleAdmin))

			r.Post("/check-ins/member", h.HandleMemberCheckIn)
			r.Post("/check-ins/day-pass", h.HandleDayPassCheckIn)
			r.Post("/check-outs", h.HandleCheckOut)
			r.Get("/members/{code}/validation", h.HandleMemberValidation)
			r.Get("/members/{code}/history", h.HandleMemberHistory)
			r.Get("/day-passes/{passID}/validation", h.HandleDayPassValidation)

			r.Get("/records", h.HandleList)
			r.Get("/records/active", h.HandleActive)
			r.Get("/records/today", h.HandleToday)
			r.Get("/records/{id}", h.HandleGet)
			r.Post("/records/{id}/extend", h.HandleExtend)
			r.With(auth.RequireRole(h.logger, jwttoken.RoleAdmin)).
				Post("/records/{id}/force-checkout", h.HandleForceCheckOut)
		})
	})
}

// HandleMemberCheckIn handles POST /attendance/check-ins/member.
func (h *Handler) HandleMemberCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MemberCheckInRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.CheckInMember(ctx, req.Command())
	if err != nil {
		h.fail(ctx, w, "member check-in failed", err, "member_code", req.MemberCode)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

// HandleDayPassCheckIn handles POST /attendance/check-ins/day-pass.
func (h *Handler) HandleDayPassCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DayPassCheckInRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.CheckInDayPass(ctx, req.Command())
	if err != nil {
		h.fail(ctx, w, "day-pass check-in failed", err, "pass_id", req.PassID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

// HandleQRCheckIn handles POST /attendance/check-ins/qr.
func (h *Handler) HandleQRCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[QRCheckInRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.CheckInByQR(ctx, req.Code)
	if err != nil {
		h.fail(ctx, w, "qr check-in failed", err,
			"client_ip", metadata.ClientIP(ctx),
			"kiosk_id", metadata.KioskID(ctx),
		)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, view)
}

// HandleQRValidation handles GET /attendance/qr/{code}/validation.
// An unresolved code is reported in the body, not as an error status.
func (h *Handler) HandleQRValidation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "code is required"))
		return
	}

	resolution := h.admission.ResolveQRCode(ctx, code)
	if err := resolution.Validation.LookupErr; err != nil {
		h.fail(ctx, w, "qr validation failed", dErrors.Wrap(err, dErrors.CodeInternal, resolution.Validation.Reason))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolution)
}

// HandleMemberValidation handles GET /attendance/members/{code}/validation.
func (h *Handler) HandleMemberValidation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if err := validateIdentifier("member_code", code); err != nil {
		httputil.WriteError(w, err)
		return
	}

	validation := h.admission.ValidateMember(ctx, code)
	if err := validation.LookupErr; err != nil {
		h.fail(ctx, w, "member validation failed", dErrors.Wrap(err, dErrors.CodeInternal, validation.Reason), "member_code", code)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validation)
}

// HandleDayPassValidation handles GET /attendance/day-passes/{passID}/validation.
func (h *Handler) HandleDayPassValidation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	passID := strings.TrimSpace(chi.URLParam(r, "passID"))
	if err := validateIdentifier("pass_id", passID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	validation := h.admission.ValidateDayPass(ctx, passID)
	if err := validation.LookupErr; err != nil {
		h.fail(ctx, w, "day-pass validation failed", dErrors.Wrap(err, dErrors.CodeInternal, validation.Reason), "pass_id", passID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, validation)
}

// HandleCheckOut handles POST /attendance/check-outs.
func (h *Handler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckOutRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.CheckOut(ctx, service.CheckOutCommand{Identifier: req.Identifier, Notes: req.Notes})
	if err != nil {
		h.fail(ctx, w, "check-out failed", err, "identifier", req.Identifier)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleForceCheckOut handles POST /attendance/records/{id}/force-checkout.
func (h *Handler) HandleForceCheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ForceCheckOutRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.ForceCheckOut(ctx, recordID, req.Reason)
	if err != nil {
		h.fail(ctx, w, "force check-out failed", err, "record_id", recordID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleExtend handles POST /attendance/records/{id}/extend.
func (h *Handler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ExtendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.ExtendVisit(ctx, recordID, req.Hours)
	if err != nil {
		h.fail(ctx, w, "visit extension failed", err, "record_id", recordID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleGet handles GET /attendance/records/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recordID, ok := h.recordID(w, r)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), recordID)
	if err != nil {
		h.fail(r.Context(), w, "check-in lookup failed", err, "record_id", recordID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleActive handles GET /attendance/records/active.
func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Active(r.Context())
	h.writeList(w, r, "active check-ins", views, err)
}

// HandleToday handles GET /attendance/records/today.
func (h *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.Today(r.Context())
	h.writeList(w, r, "today's check-ins", views, err)
}

// HandleList handles GET /attendance/records.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views, err := h.service.Filter(r.Context(), filters)
	h.writeList(w, r, "check-ins", views, err)
}

// HandleMemberHistory handles GET /attendance/members/{code}/history.
func (h *Handler) HandleMemberHistory(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if err := validateIdentifier("member_code", code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := parseLimit(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views, err := h.service.MemberHistory(r.Context(), code, limit)
	h.writeList(w, r, "member history", views, err)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, what string, views []*models.AttendanceView, err error) {
	if err != nil {
		h.fail(r.Context(), w, "failed to list "+what, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newListResponse(views))
}

func (h *Handler) recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// fail logs err at a level matching its code and writes the error response.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.InfoContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
