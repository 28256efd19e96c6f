package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "gymdesk/pkg/domain-errors"
)

// Status is a member account's standing.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// Member is the directory entry consulted at admission.
//
// Code is the public member identifier printed on cards and encoded in QR
// codes; ID is the internal key referenced by attendance records.
type Member struct {
	ID                uuid.UUID  `json:"id"`
	Code              string     `json:"member_code"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Email             string     `json:"email"`
	Status            Status     `json:"status"`
	MembershipEndDate time.Time  `json:"membership_end_date"`
	LastCheckIn       *time.Time `json:"last_check_in,omitempty"`
	TotalCheckIns     int        `json:"total_check_ins"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func NewMember(memberID uuid.UUID, code, firstName, lastName, email string, endDate, now time.Time) (*Member, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member code cannot be empty")
	}
	if strings.TrimSpace(firstName) == "" && strings.TrimSpace(lastName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "member name cannot be empty")
	}
	return &Member{
		ID:                memberID,
		Code:              code,
		FirstName:         strings.TrimSpace(firstName),
		LastName:          strings.TrimSpace(lastName),
		Email:             strings.TrimSpace(email),
		Status:            StatusActive,
		MembershipEndDate: endDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}

// MembershipExpired reports whether now is past the membership end date.
func (m *Member) MembershipExpired(now time.Time) bool {
	return now.After(m.MembershipEndDate)
}

func (m *Member) DisplayName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// ApplyVisit records a check-in for the visit counters.
func (m *Member) ApplyVisit(at time.Time) {
	m.LastCheckIn = &at
	m.TotalCheckIns++
	m.UpdatedAt = at
}
