package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gymdesk/internal/attendance/admission"
	"gymdesk/internal/attendance/models"
	"gymdesk/internal/attendance/service"
	attendanceStore "gymdesk/internal/attendance/store"
	"gymdesk/internal/attendance/sweeper"
	daypassModels "gymdesk/internal/daypass/models"
	daypassService "gymdesk/internal/daypass/service"
	daypassStore "gymdesk/internal/daypass/store"
	jwttoken "gymdesk/internal/jwt_token"
	memberModels "gymdesk/internal/member/models"
	memberStore "gymdesk/internal/member/store"
	"gymdesk/internal/ratelimit"
	"gymdesk/pkg/platform/middleware/auth"
	"gymdesk/pkg/platform/middleware/metadata"
	"gymdesk/pkg/platform/middleware/requesttime"
)

const (
	adminToken  = "operator-secret"
	kioskBudget = 5
)

// stubValidator accepts "<role>-token" bearer tokens.
type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*auth.JWTClaims, error) {
	switch token {
	case "staff-token":
		return &auth.JWTClaims{StaffID: "staff-1", Role: jwttoken.RoleStaff}, nil
	case "admin-token":
		return &auth.JWTClaims{StaffID: "admin-1", Role: jwttoken.RoleAdmin}, nil
	case "kiosk-token":
		return &auth.JWTClaims{StaffID: "kiosk-1", Role: jwttoken.RoleKiosk}, nil
	}
	return nil, errors.New("invalid token")
}

type HandlerSuite struct {
	suite.Suite
	router  chi.Router
	now     time.Time
	members *memberStore.InMemoryStore
	passes  *daypassStore.InMemoryStore
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s.members = memberStore.NewInMemory()
	s.passes = daypassStore.NewInMemory()
	records := attendanceStore.NewInMemory()

	passService, err := daypassService.New(s.passes, daypassService.WithLogger(logger))
	s.Require().NoError(err)
	validator, err := admission.New(records, s.members, passService, admission.WithLogger(logger))
	s.Require().NoError(err)
	svc, err := service.New(records, s.members, passService, validator, service.WithLogger(logger))
	s.Require().NoError(err)
	sw, err := sweeper.New(records, sweeper.WithLogger(logger), sweeper.WithPassExpirer(passService))
	s.Require().NoError(err)

	kioskLimit := ratelimit.Middleware(ratelimit.NewInMemory(), ratelimit.Policy{Name: "kiosk", Requests: kioskBudget, Window: time.Minute}, logger)

	r := chi.NewRouter()
	r.Use(requesttime.WithClock(func() time.Time { return s.now }))
	r.Use(metadata.ClientMetadata)
	New(svc, validator, stubValidator{}, logger, WithKioskMiddleware(kioskLimit)).Register(r)
	NewAdmin(sw, adminToken, logger).Register(r)
	s.router = r

	m, err := memberModels.NewMember(uuid.New(), "M-100", "Ken", "Thompson", "", s.now.AddDate(1, 0, 0), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.members.Save(context.Background(), m))
	p, err := daypassModels.NewDayPass(uuid.New(), "DP-100", "QR-DP-100", "Dennis", "Ritchie", s.now, 1500, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.passes.Save(context.Background(), p))
}

func (s *HandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) decode(w *httptest.ResponseRecorder, into any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), into))
}

func (s *HandlerSuite) requireError(w *httptest.ResponseRecorder, status int, code, description string) {
	s.Require().Equal(status, w.Code, w.Body.String())
	var body map[string]string
	s.decode(w, &body)
	s.Equal(code, body["error"])
	if description != "" {
		s.Equal(description, body["error_description"])
	}
}

func (s *HandlerSuite) checkInMember() models.AttendanceView {
	w := s.do(http.MethodPost, "/attendance/check-ins/member", "staff-token", map[string]any{
		"member_code": "M-100",
		"method":      "card",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var view models.AttendanceView
	s.decode(w, &view)
	return view
}

func (s *HandlerSuite) TestMemberCheckIn() {
	view := s.checkInMember()
	s.Equal("M-100", view.MemberCode)
	s.Equal("Ken Thompson", view.DisplayName)
	s.Equal(models.StatusOpen, view.Status)

	w := s.do(http.MethodPost, "/attendance/check-ins/member", "staff-token", map[string]any{
		"member_code": "M-100",
		"method":      "card",
	})
	s.requireError(w, http.StatusBadRequest, "invalid_operation", "Member is already checked in")
}

func (s *HandlerSuite) TestStaffRoutesRequireToken() {
	w := s.do(http.MethodPost, "/attendance/check-ins/member", "", map[string]any{"member_code": "M-100", "method": "card"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/attendance/records/active", "kiosk-token", nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerSuite) TestRequestValidation() {
	w := s.do(http.MethodPost, "/attendance/check-ins/member", "staff-token", map[string]any{
		"member_code": "M-100",
		"method":      "telepathy",
	})
	s.requireError(w, http.StatusBadRequest, "validation_error", `unknown check-in method "telepathy"`)

	req := httptest.NewRequest(http.MethodPost, "/attendance/check-outs", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer staff-token")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.requireError(rec, http.StatusBadRequest, "bad_request", "invalid json body")
}

func (s *HandlerSuite) TestDayPassCheckIn() {
	w := s.do(http.MethodPost, "/attendance/check-ins/day-pass", "staff-token", map[string]any{
		"pass_id": "DP-100",
		"method":  "manual_entry",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var view models.AttendanceView
	s.decode(w, &view)
	s.Equal("DP-100", view.DayPassID)
	s.Equal("Dennis Ritchie", view.DisplayName)

	w = s.do(http.MethodGet, "/attendance/day-passes/DP-100/validation", "staff-token", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var validation models.Validation
	s.decode(w, &validation)
	s.False(validation.CanCheckIn)
	s.Equal("Day pass has already been used", validation.Reason)
}

func (s *HandlerSuite) TestKioskQRCheckIn() {
	w := s.do(http.MethodGet, "/attendance/qr/QR-DP-100/validation", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resolution models.QRResolution
	s.decode(w, &resolution)
	s.Equal(models.SubjectDayPass, resolution.Type)
	s.True(resolution.Validation.CanCheckIn)

	w = s.do(http.MethodPost, "/attendance/check-ins/qr", "", map[string]string{"code": `{"type":"MEMBER_ID","memberId":"M-100"}`})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var view models.AttendanceView
	s.decode(w, &view)
	s.Equal(models.MethodQRScan, view.Method)

	w = s.do(http.MethodPost, "/attendance/check-ins/qr", "", map[string]string{"code": "NOPE"})
	s.requireError(w, http.StatusNotFound, "not_found", "QR Code with identifier NOPE not found")
}

func (s *HandlerSuite) TestUnresolvedQRPreview() {
	w := s.do(http.MethodGet, "/attendance/qr/NOPE/validation", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var resolution models.QRResolution
	s.decode(w, &resolution)
	s.False(resolution.Resolved())
	s.Equal("Invalid QR code", resolution.Validation.Reason)
}

func (s *HandlerSuite) TestKioskRoutesAreRateLimited() {
	for range kioskBudget {
		w := s.do(http.MethodGet, "/attendance/qr/QR-DP-100/validation", "", nil)
		s.Require().Equal(http.StatusOK, w.Code)
	}
	w := s.do(http.MethodPost, "/attendance/check-ins/qr", "", map[string]string{"code": "QR-DP-100"})
	s.Require().Equal(http.StatusTooManyRequests, w.Code)
	var body map[string]any
	s.decode(w, &body)
	s.Equal("rate_limit_exceeded", body["error"])
	s.NotEmpty(w.Header().Get("Retry-After"))

	for range kioskBudget + 1 {
		w = s.do(http.MethodGet, "/attendance/members/M-100/validation", "staff-token", nil)
		s.Require().Equal(http.StatusOK, w.Code, "staff routes are not kiosk limited")
	}
}

func (s *HandlerSuite) TestCheckOut() {
	s.checkInMember()

	w := s.do(http.MethodPost, "/attendance/check-outs", "staff-token", map[string]string{"identifier": "M-100"})
	s.requireError(w, http.StatusBadRequest, "invalid_operation", "Minimum check-in duration is 5 minutes")

	s.now = s.now.Add(42 * time.Minute)
	w = s.do(http.MethodPost, "/attendance/check-outs", "staff-token", map[string]string{"identifier": "M-100", "notes": "towel returned"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var view models.AttendanceView
	s.decode(w, &view)
	s.Equal(models.StatusClosedManual, view.Status)
	s.Equal(42, *view.DurationMinutes)

	w = s.do(http.MethodPost, "/attendance/check-outs", "staff-token", map[string]string{"identifier": "M-100"})
	s.requireError(w, http.StatusNotFound, "not_found", "Active check-in with identifier M-100 not found")
}

func (s *HandlerSuite) TestForceCheckOutRequiresAdmin() {
	view := s.checkInMember()
	path := "/attendance/records/" + view.ID.String() + "/force-checkout"

	w := s.do(http.MethodPost, path, "staff-token", map[string]string{"reason": "closing"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, path, "admin-token", map[string]string{"reason": ""})
	s.requireError(w, http.StatusBadRequest, "validation_error", "reason is required")

	w = s.do(http.MethodPost, path, "admin-token", map[string]string{"reason": "closing"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var closed models.AttendanceView
	s.decode(w, &closed)
	s.Equal([]string{"Force checkout: closing"}, closed.Notes)

	w = s.do(http.MethodPost, path, "admin-token", map[string]string{"reason": "closing"})
	s.requireError(w, http.StatusBadRequest, "invalid_operation", "Check-in is already completed")
}

func (s *HandlerSuite) TestExtend() {
	view := s.checkInMember()

	w := s.do(http.MethodPost, "/attendance/records/"+view.ID.String()+"/extend", "staff-token", map[string]int{"hours": 2})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var extended models.AttendanceView
	s.decode(w, &extended)
	s.True(extended.ScheduledCheckoutTime.Equal(s.now.Add(5 * time.Hour)))

	w = s.do(http.MethodPost, "/attendance/records/"+view.ID.String()+"/extend", "staff-token", map[string]int{"hours": 24})
	s.requireError(w, http.StatusBadRequest, "validation_error", "hours must be between 1 and 12")
}

func (s *HandlerSuite) TestRecordQueries() {
	view := s.checkInMember()

	w := s.do(http.MethodGet, "/attendance/records/active", "staff-token", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list ListResponse
	s.decode(w, &list)
	s.Equal(1, list.Count)

	w = s.do(http.MethodGet, "/attendance/records/today", "staff-token", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Equal(1, list.Count)

	w = s.do(http.MethodGet, "/attendance/records?status=open,closed_manual&type=member&limit=5", "staff-token", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &list)
	s.Equal(1, list.Count)

	w = s.do(http.MethodGet, "/attendance/records?type=day_pass", "staff-token", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Zero(list.Count)
	s.NotNil(list.Records)

	w = s.do(http.MethodGet, "/attendance/records?status=bogus", "staff-token", nil)
	s.requireError(w, http.StatusBadRequest, "validation_error", "")

	w = s.do(http.MethodGet, "/attendance/records/"+view.ID.String(), "staff-token", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/attendance/records/not-a-uuid", "staff-token", nil)
	s.requireError(w, http.StatusBadRequest, "validation_error", "id must be a UUID")

	w = s.do(http.MethodGet, "/attendance/records/"+uuid.NewString(), "staff-token", nil)
	s.requireError(w, http.StatusNotFound, "not_found", "")

	w = s.do(http.MethodGet, "/attendance/members/M-100/history?limit=1", "staff-token", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Equal(1, list.Count)

	w = s.do(http.MethodGet, "/attendance/members/M-404/history", "staff-token", nil)
	s.requireError(w, http.StatusNotFound, "not_found", "Member with identifier M-404 not found")
}

func (s *HandlerSuite) TestMemberValidation() {
	w := s.do(http.MethodGet, "/attendance/members/M-100/validation", "staff-token", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var validation models.Validation
	s.decode(w, &validation)
	s.True(validation.CanCheckIn)
	s.Require().NotNil(validation.RemainingAdmissionsToday)
	s.Equal(2, *validation.RemainingAdmissionsToday)
}

func (s *HandlerSuite) TestAdminSweeps() {
	s.checkInMember()

	req := httptest.NewRequest(http.MethodPost, "/admin/sweeps/auto-checkout", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)

	s.now = s.now.Add(4 * time.Hour)
	req = httptest.NewRequest(http.MethodPost, "/admin/sweeps/auto-checkout", nil)
	req.Header.Set("X-Admin-Token", adminToken)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var result sweeper.PassResult
	s.decode(w, &result)
	s.Equal(sweeper.PassResult{Candidates: 1, Closed: 1}, result)

	s.now = s.now.AddDate(0, 0, 1)
	req = httptest.NewRequest(http.MethodPost, "/admin/sweeps/day-pass-expiry", nil)
	req.Header.Set("X-Admin-Token", adminToken)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var expired map[string]int
	s.decode(w, &expired)
	s.Equal(1, expired["expired"])
}
