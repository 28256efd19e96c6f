package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "gymdesk/pkg/domain-errors"
)

// ErrAlreadyClosed guards every transition out of a terminal state.
// Services surface it as an invalid operation.
var ErrAlreadyClosed = dErrors.New(dErrors.CodeInvariantViolation, "attendance record is already closed")

// AttendanceRecord is one visit, from entry to exit.
//
// Invariants:
//   - Subject is always set (member or day pass, never both)
//   - ExitTime is set once, on the transition out of open, and never changes
//   - DurationMinutes == floor((ExitTime - EntryTime) / 1m) whenever present
//   - ScheduledCheckoutTime, when set, is never before EntryTime
//   - Status transitions: open → closed_manual | closed_auto | expired, all terminal
//   - Notes only grow
type AttendanceRecord struct {
	ID                    uuid.UUID
	Subject               Subject
	EntryTime             time.Time
	ExitTime              *time.Time
	DurationMinutes       *int
	Method                Method
	Status                Status
	AutoCheckoutEnabled   bool
	ScheduledCheckoutTime *time.Time
	Location              string
	Notes                 []string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewAttendanceRecord opens a visit at entry. With autoCheckout the visit is
// scheduled to close AutoCheckoutWindow after entry.
func NewAttendanceRecord(recordID uuid.UUID, subject Subject, method Method, location string, autoCheckout bool, entry time.Time) (*AttendanceRecord, error) {
	if err := validateSubject(subject); err != nil {
		return nil, err
	}
	if !method.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf("unknown check-in method %q", method))
	}
	if entry.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entry time is required")
	}

	r := &AttendanceRecord{
		ID:                  recordID,
		Subject:             subject,
		EntryTime:           entry,
		Method:              method,
		Status:              StatusOpen,
		AutoCheckoutEnabled: autoCheckout,
		Location:            strings.TrimSpace(location),
		Notes:               []string{},
		CreatedAt:           entry,
		UpdatedAt:           entry,
	}
	if autoCheckout {
		scheduled := entry.Add(AutoCheckoutWindow)
		r.ScheduledCheckoutTime = &scheduled
	}
	return r, nil
}

func validateSubject(subject Subject) error {
	switch s := subject.(type) {
	case MemberSubject:
		if s.MemberID == uuid.Nil {
			return dErrors.New(dErrors.CodeInvariantViolation, "member reference is required")
		}
	case DayPassSubject:
		if strings.TrimSpace(s.Pass.PassID) == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "day pass reference is required")
		}
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "attendance subject is required")
	}
	return nil
}

func (r *AttendanceRecord) IsOpen() bool {
	return r.Status == StatusOpen
}

// Member returns the member reference when the visit belongs to a member.
func (r *AttendanceRecord) Member() (MemberSubject, bool) {
	s, ok := r.Subject.(MemberSubject)
	return s, ok
}

// DayPass returns the pass snapshot when the visit belongs to a day pass.
func (r *AttendanceRecord) DayPass() (DayPassSnapshot, bool) {
	s, ok := r.Subject.(DayPassSubject)
	return s.Pass, ok
}

// CanClose checks the record may leave the open state.
// Use with the Apply* methods in Execute callbacks.
func (r *AttendanceRecord) CanClose() error {
	if !r.IsOpen() {
		return ErrAlreadyClosed
	}
	return nil
}

// ApplyClose records a manual checkout at at. Call CanClose first.
func (r *AttendanceRecord) ApplyClose(at time.Time) {
	r.finish(StatusClosedManual, at, at)
}

// Close validates and applies a manual checkout in one call.
func (r *AttendanceRecord) Close(at time.Time) error {
	if err := r.CanClose(); err != nil {
		return err
	}
	if at.Before(r.EntryTime) {
		return dErrors.New(dErrors.CodeInvariantViolation, "exit time cannot precede entry time")
	}
	r.ApplyClose(at)
	return nil
}

// ApplyAutoClose closes the visit at its scheduled deadline, or at now when
// none was scheduled. Returns the recorded exit time. Call CanClose first.
func (r *AttendanceRecord) ApplyAutoClose(now time.Time) time.Time {
	exit := now
	if r.ScheduledCheckoutTime != nil {
		exit = *r.ScheduledCheckoutTime
	}
	r.finish(StatusClosedAuto, exit, now)
	return exit
}

// AutoClose validates and applies an automatic checkout in one call.
func (r *AttendanceRecord) AutoClose(now time.Time) error {
	if err := r.CanClose(); err != nil {
		return err
	}
	r.ApplyAutoClose(now)
	return nil
}

// ApplyForceClose records an administrative checkout with an audit note. Call CanClose first.
func (r *AttendanceRecord) ApplyForceClose(reason string, at time.Time) {
	r.finish(StatusClosedManual, at, at)
	r.AppendNote("Force checkout: "+strings.TrimSpace(reason), at)
}

// ForceClose validates and applies an administrative checkout in one call.
// Privilege checks belong to the caller.
func (r *AttendanceRecord) ForceClose(reason string, at time.Time) error {
	if err := r.CanClose(); err != nil {
		return err
	}
	if at.Before(r.EntryTime) {
		return dErrors.New(dErrors.CodeInvariantViolation, "exit time cannot precede entry time")
	}
	r.ApplyForceClose(reason, at)
	return nil
}

// Expire retires a forgotten open record without inventing an exit time.
func (r *AttendanceRecord) Expire(at time.Time) error {
	if err := r.CanClose(); err != nil {
		return err
	}
	r.Status = StatusExpired
	r.UpdatedAt = at
	return nil
}

// ShouldAutoClose reports whether the sweeper should close this record at now.
func (r *AttendanceRecord) ShouldAutoClose(now time.Time) bool {
	if !r.AutoCheckoutEnabled || !r.IsOpen() || r.ScheduledCheckoutTime == nil {
		return false
	}
	return !now.Before(*r.ScheduledCheckoutTime)
}

// CanExtend checks the visit may have its scheduled checkout pushed back.
func (r *AttendanceRecord) CanExtend(additional time.Duration) error {
	if err := r.CanClose(); err != nil {
		return err
	}
	if additional <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "extension must be positive")
	}
	return nil
}

// ApplyExtend pushes the scheduled checkout later. Records without a schedule
// are left unchanged. Call CanExtend first.
func (r *AttendanceRecord) ApplyExtend(additional time.Duration, at time.Time) {
	if r.ScheduledCheckoutTime == nil {
		return
	}
	extended := r.ScheduledCheckoutTime.Add(additional)
	r.ScheduledCheckoutTime = &extended
	r.UpdatedAt = at
}

// Extend validates and applies an extension in one call.
func (r *AttendanceRecord) Extend(additional time.Duration, at time.Time) error {
	if err := r.CanExtend(additional); err != nil {
		return err
	}
	r.ApplyExtend(additional, at)
	return nil
}

// ElapsedMinutes is the visit length so far for open records, or the stored duration.
func (r *AttendanceRecord) ElapsedMinutes(now time.Time) int {
	if !r.IsOpen() && r.DurationMinutes != nil {
		return *r.DurationMinutes
	}
	return floorMinutes(now.Sub(r.EntryTime))
}

// IsValidForCheckout reports whether at least minimum has elapsed since entry.
func (r *AttendanceRecord) IsValidForCheckout(now time.Time, minimum time.Duration) bool {
	return r.ElapsedMinutes(now) >= floorMinutes(minimum)
}

// AppendNote adds a note line. Blank notes are ignored.
func (r *AttendanceRecord) AppendNote(note string, at time.Time) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	r.Notes = append(r.Notes, note)
	r.UpdatedAt = at
}

func (r *AttendanceRecord) finish(status Status, exit, at time.Time) {
	duration := floorMinutes(exit.Sub(r.EntryTime))
	r.Status = status
	r.ExitTime = &exit
	r.DurationMinutes = &duration
	r.UpdatedAt = at
}

// floorMinutes rounds toward negative infinity, unlike integer division.
func floorMinutes(d time.Duration) int {
	m := d / time.Minute
	if d < 0 && d%time.Minute != 0 {
		m--
	}
	return int(m)
}

// IsAlreadyClosed reports whether err came from a transition on a terminal record.
func IsAlreadyClosed(err error) bool {
	return errors.Is(err, ErrAlreadyClosed)
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (r *AttendanceRecord) Clone() *AttendanceRecord {
	cp := *r
	if r.ExitTime != nil {
		exit := *r.ExitTime
		cp.ExitTime = &exit
	}
	if r.DurationMinutes != nil {
		d := *r.DurationMinutes
		cp.DurationMinutes = &d
	}
	if r.ScheduledCheckoutTime != nil {
		sched := *r.ScheduledCheckoutTime
		cp.ScheduledCheckoutTime = &sched
	}
	cp.Notes = append([]string{}, r.Notes...)
	return &cp
}
