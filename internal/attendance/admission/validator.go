// Package admission decides whether a member or day-pass holder may enter right now.
//
// Validators never return errors: every outcome, including a failed directory
// lookup, is a models.Validation. Lookup failures additionally carry the cause
// in Validation.LookupErr so orchestrators can surface it as an internal error.
package admission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/attendance/metrics"
	"gymdesk/internal/attendance/models"
	daypassModels "gymdesk/internal/daypass/models"
	memberModels "gymdesk/internal/member/models"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/dates"
	"gymdesk/pkg/platform/sentinel"
	"gymdesk/pkg/requestcontext"
)

type MemberDirectory interface {
	FindByCode(ctx context.Context, code string) (*memberModels.Member, error)
}

type DayPassDirectory interface {
	FindByPassID(ctx context.Context, passID string) (*daypassModels.DayPass, error)
	FindByCode(ctx context.Context, code string) (*daypassModels.DayPass, error)
}

type RecordReader interface {
	FindOpenByMember(ctx context.Context, memberID uuid.UUID) (*models.AttendanceRecord, error)
	FindOpenByDayPass(ctx context.Context, passID string) (*models.AttendanceRecord, error)
	CountEntriesBetween(ctx context.Context, memberID uuid.UUID, start, end time.Time) (int, error)
}

// Validator applies the admission policy. It performs reads only.
type Validator struct {
	members MemberDirectory
	passes  DayPassDirectory
	records RecordReader
	logger  *slog.Logger
	loc     *time.Location
	metrics *metrics.Metrics
}

type Option func(*Validator)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithLocation sets the time zone whose calendar day bounds the daily cap.
func WithLocation(loc *time.Location) Option {
	return func(v *Validator) {
		v.loc = loc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

func New(records RecordReader, members MemberDirectory, passes DayPassDirectory, opts ...Option) (*Validator, error) {
	if records == nil {
		return nil, errors.New("attendance record reader is required")
	}
	if members == nil {
		return nil, errors.New("member directory is required")
	}
	if passes == nil {
		return nil, errors.New("day pass directory is required")
	}
	v := &Validator{records: records, members: members, passes: passes, loc: time.UTC}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	return v, nil
}

// ValidateMember checks a member code against the admission rules in order:
// existence, account status, membership end date, open visit, daily cap.
func (v *Validator) ValidateMember(ctx context.Context, memberCode string) models.Validation {
	m, err := v.members.FindByCode(ctx, memberCode)
	if err != nil {
		if isNotFound(err) {
			return v.observe(models.SubjectMember, models.Rejected(models.ReasonMemberNotFound))
		}
		return v.lookupFailed(ctx, models.SubjectMember, models.ReasonMemberLookupFailed, err, "member_code", memberCode)
	}
	return v.observe(models.SubjectMember, v.validateMember(ctx, m))
}

func (v *Validator) validateMember(ctx context.Context, m *memberModels.Member) models.Validation {
	now := requestcontext.Now(ctx)

	if !m.IsActive() {
		return models.Rejected(fmt.Sprintf("Member account is %s", m.Status))
	}
	if m.MembershipExpired(now) {
		end := m.MembershipEndDate
		return models.Validation{Reason: models.ReasonMembershipExpired, ValidUntil: &end}
	}

	_, err := v.records.FindOpenByMember(ctx, m.ID)
	switch {
	case err == nil:
		return models.Rejected(models.ReasonMemberCheckedIn)
	case !isNotFound(err):
		return v.lookupFailedResult(ctx, models.ReasonMemberLookupFailed, err, "member_code", m.Code)
	}

	start, end := dates.DayBounds(now, v.loc)
	count, err := v.records.CountEntriesBetween(ctx, m.ID, start, end)
	if err != nil {
		return v.lookupFailedResult(ctx, models.ReasonMemberLookupFailed, err, "member_code", m.Code)
	}
	if count >= models.DailyAdmissionCap {
		remaining := 0
		return models.Validation{
			IsValid:                  true,
			Reason:                   fmt.Sprintf("Daily check-in limit reached (%d)", models.DailyAdmissionCap),
			RemainingAdmissionsToday: &remaining,
		}
	}

	validUntil := m.MembershipEndDate
	remaining := models.DailyAdmissionCap - count
	return models.Validation{
		IsValid:                  true,
		CanCheckIn:               true,
		ValidUntil:               &validUntil,
		RemainingAdmissionsToday: &remaining,
	}
}

// ValidateDayPass checks a pass id: existence, status, valid date, open visit.
func (v *Validator) ValidateDayPass(ctx context.Context, passID string) models.Validation {
	p, err := v.passes.FindByPassID(ctx, passID)
	if err != nil {
		if isNotFound(err) {
			return v.observe(models.SubjectDayPass, models.Rejected(models.ReasonDayPassNotFound))
		}
		return v.lookupFailed(ctx, models.SubjectDayPass, models.ReasonDayPassLookupFailed, err, "pass_id", passID)
	}
	return v.observe(models.SubjectDayPass, v.validateDayPass(ctx, p))
}

func (v *Validator) validateDayPass(ctx context.Context, p *daypassModels.DayPass) models.Validation {
	today := dates.Today(requestcontext.Now(ctx), v.loc)

	if p.Status != daypassModels.StatusActive {
		return models.Rejected(dayPassStatusReason(p.Status))
	}
	if !p.IsValidOn(today) {
		validDate := p.ValidDate
		return models.Validation{Reason: models.ReasonDayPassNotToday, ValidUntil: &validDate}
	}

	_, err := v.records.FindOpenByDayPass(ctx, p.PassID)
	switch {
	case err == nil:
		return models.Rejected(models.ReasonDayPassCheckedIn)
	case !isNotFound(err):
		return v.lookupFailedResult(ctx, models.ReasonDayPassLookupFailed, err, "pass_id", p.PassID)
	}

	validDate := p.ValidDate
	remaining := 1
	return models.Validation{
		IsValid:                  true,
		CanCheckIn:               true,
		ValidUntil:               &validDate,
		RemainingAdmissionsToday: &remaining,
	}
}

func dayPassStatusReason(status daypassModels.Status) string {
	switch status {
	case daypassModels.StatusUsed:
		return models.ReasonDayPassUsed
	case daypassModels.StatusExpired:
		return models.ReasonDayPassExpired
	case daypassModels.StatusCancelled:
		return models.ReasonDayPassCancelled
	default:
		return fmt.Sprintf("Day pass is %s", status)
	}
}

// memberQRPayload is the JSON shape printed on member cards.
type memberQRPayload struct {
	Type     string `json:"type"`
	MemberID string `json:"memberId"`
}

const memberQRType = "MEMBER_ID"

// ResolveQRCode identifies a scanned code and validates the entrant it names.
//
// Resolution order: member JSON payload, plain member code, day-pass code or
// pass id. A later step runs only when the earlier one identified nobody, so a
// known but ineligible member is reported as such.
func (v *Validator) ResolveQRCode(ctx context.Context, code string) models.QRResolution {
	code = strings.TrimSpace(code)

	if memberCode, ok := parseMemberPayload(code); ok {
		return models.QRResolution{
			Type:       models.SubjectMember,
			ID:         memberCode,
			Validation: v.ValidateMember(ctx, memberCode),
		}
	}

	m, err := v.members.FindByCode(ctx, code)
	switch {
	case err == nil:
		return models.QRResolution{
			Type:       models.SubjectMember,
			ID:         m.Code,
			Validation: v.observe(models.SubjectMember, v.validateMember(ctx, m)),
		}
	case !isNotFound(err):
		return models.QRResolution{Validation: v.lookupFailed(ctx, models.SubjectMember, models.ReasonQRLookupFailed, err, "qr_code", code)}
	}

	p, err := v.passes.FindByCode(ctx, code)
	switch {
	case err == nil:
		return models.QRResolution{
			Type:       models.SubjectDayPass,
			ID:         p.PassID,
			Validation: v.observe(models.SubjectDayPass, v.validateDayPass(ctx, p)),
		}
	case !isNotFound(err):
		return models.QRResolution{Validation: v.lookupFailed(ctx, models.SubjectDayPass, models.ReasonQRLookupFailed, err, "qr_code", code)}
	}

	return models.QRResolution{Validation: models.Rejected(models.ReasonInvalidQRCode)}
}

// parseMemberPayload reports the member code carried by a member card payload.
// Anything that is not that exact shape, malformed JSON included, is not a member payload.
func parseMemberPayload(code string) (string, bool) {
	if !strings.HasPrefix(code, "{") {
		return "", false
	}
	var payload memberQRPayload
	if err := json.Unmarshal([]byte(code), &payload); err != nil {
		return "", false
	}
	memberCode := strings.TrimSpace(payload.MemberID)
	if payload.Type != memberQRType || memberCode == "" {
		return "", false
	}
	return memberCode, true
}

func (v *Validator) lookupFailed(ctx context.Context, kind models.SubjectKind, reason string, err error, key, value string) models.Validation {
	v.metrics.ObserveAdmission(string(kind), "error")
	return v.lookupFailedResult(ctx, reason, err, key, value)
}

func (v *Validator) lookupFailedResult(ctx context.Context, reason string, err error, key, value string) models.Validation {
	v.logger.ErrorContext(ctx, "admission lookup failed",
		key, value,
		"error", err,
	)
	return models.LookupFailed(reason, err)
}

func (v *Validator) observe(kind models.SubjectKind, result models.Validation) models.Validation {
	outcome := "rejected"
	switch {
	case result.LookupErr != nil:
		outcome = "error"
	case result.CanCheckIn:
		outcome = "admitted"
	}
	v.metrics.ObserveAdmission(string(kind), outcome)
	return result
}

// isNotFound accepts both store sentinels and directory-level domain errors.
func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound)
}
