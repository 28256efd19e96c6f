package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gymdesk/internal/attendance/models"
	"gymdesk/internal/attendance/service"
	dErrors "gymdesk/pkg/domain-errors"
	liststrings "gymdesk/pkg/platform/strings"
)

const (
	maxIdentifierLength = 64
	maxNotesLength      = 500
	maxLocationLength   = 100
)

// MemberCheckInRequest is the body of POST /attendance/check-ins/member.
type MemberCheckInRequest struct {
	MemberCode   string `json:"member_code"`
	Method       string `json:"method"`
	Location     string `json:"location"`
	Notes        string `json:"notes"`
	AutoCheckout *bool  `json:"auto_checkout"`

	parsedMethod models.Method
}

func (r *MemberCheckInRequest) Normalize() {
	r.MemberCode = strings.TrimSpace(r.MemberCode)
	r.Location = strings.TrimSpace(r.Location)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *MemberCheckInRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := validateIdentifier("member_code", r.MemberCode); err != nil {
		return err
	}
	if err := validateFreeText(r.Location, r.Notes); err != nil {
		return err
	}
	method, err := parseMethod(r.Method)
	if err != nil {
		return err
	}
	r.parsedMethod = method
	return nil
}

func (r *MemberCheckInRequest) Command() service.CheckInMemberCommand {
	return service.CheckInMemberCommand{
		MemberCode:   r.MemberCode,
		Method:       r.parsedMethod,
		Location:     r.Location,
		Notes:        r.Notes,
		AutoCheckout: r.AutoCheckout,
	}
}

// DayPassCheckInRequest is the body of POST /attendance/check-ins/day-pass.
type DayPassCheckInRequest struct {
	PassID   string `json:"pass_id"`
	Method   string `json:"method"`
	Location string `json:"location"`
	Notes    string `json:"notes"`

	parsedMethod models.Method
}

func (r *DayPassCheckInRequest) Normalize() {
	r.PassID = strings.TrimSpace(r.PassID)
	r.Location = strings.TrimSpace(r.Location)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *DayPassCheckInRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := validateIdentifier("pass_id", r.PassID); err != nil {
		return err
	}
	if err := validateFreeText(r.Location, r.Notes); err != nil {
		return err
	}
	method, err := parseMethod(r.Method)
	if err != nil {
		return err
	}
	r.parsedMethod = method
	return nil
}

func (r *DayPassCheckInRequest) Command() service.CheckInDayPassCommand {
	return service.CheckInDayPassCommand{
		PassID:   r.PassID,
		Method:   r.parsedMethod,
		Location: r.Location,
		Notes:    r.Notes,
	}
}

// QRCheckInRequest is the body of POST /attendance/check-ins/qr.
type QRCheckInRequest struct {
	Code string `json:"code"`
}

func (r *QRCheckInRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
}

func (r *QRCheckInRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	if len(r.Code) > 512 {
		return dErrors.New(dErrors.CodeValidation, "code must be at most 512 characters")
	}
	return nil
}

// CheckOutRequest is the body of POST /attendance/check-outs.
type CheckOutRequest struct {
	Identifier string `json:"identifier"`
	Notes      string `json:"notes"`
}

func (r *CheckOutRequest) Normalize() {
	r.Identifier = strings.TrimSpace(r.Identifier)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *CheckOutRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := validateIdentifier("identifier", r.Identifier); err != nil {
		return err
	}
	return validateFreeText("", r.Notes)
}

// ForceCheckOutRequest is the body of POST /attendance/records/{id}/force-checkout.
type ForceCheckOutRequest struct {
	Reason string `json:"reason"`
}

func (r *ForceCheckOutRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *ForceCheckOutRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return validateFreeText("", r.Reason)
}

// ExtendRequest is the body of POST /attendance/records/{id}/extend.
type ExtendRequest struct {
	Hours int `json:"hours"`
}

func (r *ExtendRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Hours < service.MinExtensionHours || r.Hours > service.MaxExtensionHours {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("hours must be between %d and %d", service.MinExtensionHours, service.MaxExtensionHours))
	}
	return nil
}

// parseFilters reads the list query: status (repeatable or comma separated),
// type, method, from, to (RFC 3339) and limit.
func parseFilters(q url.Values) (models.Filters, error) {
	var f models.Filters
	for _, v := range liststrings.SplitList(q["status"]) {
		status, err := models.ParseStatus(v)
		if err != nil {
			return f, err
		}
		f.Statuses = append(f.Statuses, status)
	}
	if v := q.Get("type"); v != "" {
		kind, err := models.ParseSubjectKind(v)
		if err != nil {
			return f, err
		}
		f.Kind = kind
	}
	if v := q.Get("method"); v != "" {
		method, err := parseMethod(v)
		if err != nil {
			return f, err
		}
		f.Method = method
	}
	from, err := parseTime(q, "from")
	if err != nil {
		return f, err
	}
	f.EntryFrom = from
	to, err := parseTime(q, "to")
	if err != nil {
		return f, err
	}
	f.EntryUntil = to
	if f.EntryFrom != nil && f.EntryUntil != nil && !f.EntryFrom.Before(*f.EntryUntil) {
		return f, dErrors.New(dErrors.CodeValidation, "from must be before to")
	}
	limit, err := parseLimit(q)
	if err != nil {
		return f, err
	}
	f.Limit = limit
	return f, nil
}

func parseTime(q url.Values, key string) (*time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, key+" must be an RFC 3339 timestamp")
	}
	return &t, nil
}

func parseLimit(q url.Values) (int, error) {
	v := q.Get("limit")
	if v == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 1 || limit > models.MaxListLimit {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("limit must be between 1 and %d", models.MaxListLimit))
	}
	return limit, nil
}

func parseMethod(v string) (models.Method, error) {
	if strings.TrimSpace(v) == "" {
		return "", dErrors.New(dErrors.CodeValidation, "method is required")
	}
	return models.ParseMethod(v)
}

func validateIdentifier(field, value string) error {
	if value == "" {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if len(value) > maxIdentifierLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at most %d characters", field, maxIdentifierLength))
	}
	return nil
}

func validateFreeText(location, notes string) error {
	if len(location) > maxLocationLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("location must be at most %d characters", maxLocationLength))
	}
	if len(notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}
	return nil
}
