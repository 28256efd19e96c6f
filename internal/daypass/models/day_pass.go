package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/dates"
)

// Status is the lifecycle state of a day pass.
type Status string

const (
	StatusActive    Status = "active"
	StatusUsed      Status = "used"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// DayPass is a single-use entry credential scoped to one calendar date.
//
// Invariants:
//   - ValidDate is a civil date (midnight UTC of the valid day)
//   - UsedAt is set exactly when Status is used
//   - Status transitions: active → used | expired | cancelled, all terminal
type DayPass struct {
	ID          uuid.UUID  `json:"id"`
	PassID      string     `json:"pass_id"`
	QRCode      string     `json:"qr_code"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	ValidDate   time.Time  `json:"valid_date"`
	AmountCents int64      `json:"amount_cents"`
	Status      Status     `json:"status"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewDayPass(passUUID uuid.UUID, passID, qrCode, firstName, lastName string, validDate time.Time, amountCents int64, now time.Time) (*DayPass, error) {
	passID = strings.TrimSpace(passID)
	if passID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pass id cannot be empty")
	}
	if amountCents < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "amount cannot be negative")
	}
	qrCode = strings.TrimSpace(qrCode)
	if qrCode == "" {
		qrCode = passID
	}
	return &DayPass{
		ID:          passUUID,
		PassID:      passID,
		QRCode:      qrCode,
		FirstName:   strings.TrimSpace(firstName),
		LastName:    strings.TrimSpace(lastName),
		ValidDate:   dates.Civil(validDate),
		AmountCents: amountCents,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *DayPass) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// IsPastDate reports whether the valid date is strictly before today.
func (p *DayPass) IsPastDate(today time.Time) bool {
	return p.ValidDate.Before(today)
}

// IsValidOn reports whether the pass's date is today.
func (p *DayPass) IsValidOn(today time.Time) bool {
	return p.ValidDate.Equal(today)
}

// EffectiveStatus reports an active pass whose date has passed as expired,
// ahead of the nightly job persisting that transition.
func (p *DayPass) EffectiveStatus(today time.Time) Status {
	if p.Status == StatusActive && p.IsPastDate(today) {
		return StatusExpired
	}
	return p.Status
}

// CanConsume checks the pass may be used for entry today.
// Use with ApplyConsume in Execute callbacks.
func (p *DayPass) CanConsume(today time.Time) error {
	switch p.Status {
	case StatusUsed:
		return dErrors.New(dErrors.CodeInvalidOperation, "Day pass has already been used")
	case StatusExpired:
		return dErrors.New(dErrors.CodeInvalidOperation, "Day pass has expired")
	case StatusCancelled:
		return dErrors.New(dErrors.CodeInvalidOperation, "Day pass has been cancelled")
	}
	if p.IsPastDate(today) {
		return dErrors.New(dErrors.CodeInvalidOperation, "Day pass has expired")
	}
	if p.ValidDate.After(today) {
		return dErrors.New(dErrors.CodeInvalidOperation, "Day pass is not valid yet")
	}
	return nil
}

// ApplyConsume marks the pass used. Call CanConsume first.
func (p *DayPass) ApplyConsume(now time.Time) {
	p.Status = StatusUsed
	p.UsedAt = &now
	p.UpdatedAt = now
}

// Consume validates and applies consumption in one call.
func (p *DayPass) Consume(today, now time.Time) error {
	if err := p.CanConsume(today); err != nil {
		return err
	}
	p.ApplyConsume(now)
	return nil
}

// ShouldExpire reports whether the nightly job should retire this pass.
func (p *DayPass) ShouldExpire(today time.Time) bool {
	return p.Status == StatusActive && p.IsPastDate(today)
}

// ApplyExpiry marks the pass expired.
func (p *DayPass) ApplyExpiry(now time.Time) {
	p.Status = StatusExpired
	p.UpdatedAt = now
}
