package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceView is the caller-facing projection of a record.
type AttendanceView struct {
	ID                    uuid.UUID        `json:"id"`
	Type                  SubjectKind      `json:"type"`
	MemberCode            string           `json:"member_code,omitempty"`
	DayPassID             string           `json:"day_pass_id,omitempty"`
	DisplayName           string           `json:"display_name"`
	EntryTime             time.Time        `json:"entry_time"`
	ExitTime              *time.Time       `json:"exit_time,omitempty"`
	DurationMinutes       *int             `json:"duration_minutes,omitempty"`
	Method                Method           `json:"method"`
	Status                Status           `json:"status"`
	AutoCheckoutEnabled   bool             `json:"auto_checkout_enabled"`
	ScheduledCheckoutTime *time.Time       `json:"scheduled_checkout_time,omitempty"`
	Location              string           `json:"location,omitempty"`
	Notes                 []string         `json:"notes"`
	DayPass               *DayPassSnapshot `json:"day_pass,omitempty"`
}

// UnknownEntrant is shown when a member reference no longer resolves.
const UnknownEntrant = "Unknown"

// NewView projects a record with an already resolved display name.
func NewView(r *AttendanceRecord, displayName string) *AttendanceView {
	v := &AttendanceView{
		ID:                    r.ID,
		Type:                  r.Subject.Kind(),
		DisplayName:           displayName,
		EntryTime:             r.EntryTime,
		ExitTime:              r.ExitTime,
		DurationMinutes:       r.DurationMinutes,
		Method:                r.Method,
		Status:                r.Status,
		AutoCheckoutEnabled:   r.AutoCheckoutEnabled,
		ScheduledCheckoutTime: r.ScheduledCheckoutTime,
		Location:              r.Location,
		Notes:                 append([]string{}, r.Notes...),
	}
	switch s := r.Subject.(type) {
	case MemberSubject:
		v.MemberCode = s.MemberCode
	case DayPassSubject:
		snapshot := s.Pass
		v.DayPassID = snapshot.PassID
		v.DayPass = &snapshot
		if v.DisplayName == "" {
			v.DisplayName = snapshot.DisplayName()
		}
	}
	if v.DisplayName == "" {
		v.DisplayName = UnknownEntrant
	}
	return v
}
