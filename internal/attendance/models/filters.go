package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
	DefaultHistory   = 10
)

// Filters narrows record queries. Zero-valued fields do not constrain.
// Results are ordered by entry time, newest first.
type Filters struct {
	Statuses   []Status
	Kind       SubjectKind
	Method     Method
	MemberID   *uuid.UUID
	DayPassID  string
	EntryFrom  *time.Time // inclusive
	EntryUntil *time.Time // exclusive
	Limit      int
	// Unbounded returns every match and ignores Limit. Set only by internal
	// queries whose result must be complete, such as the people inside.
	Unbounded bool
}

// EffectiveLimit clamps Limit to [1, MaxListLimit]. It returns 0, meaning no
// limit, when Unbounded is set.
func (f Filters) EffectiveLimit() int {
	switch {
	case f.Unbounded:
		return 0
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return f.Limit
	}
}

// Matches applies the filters to one record. Used by the in-memory store.
func (f Filters) Matches(r *AttendanceRecord) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Kind != "" && r.Subject.Kind() != f.Kind {
		return false
	}
	if f.Method != "" && r.Method != f.Method {
		return false
	}
	if f.MemberID != nil {
		m, ok := r.Member()
		if !ok || m.MemberID != *f.MemberID {
			return false
		}
	}
	if f.DayPassID != "" {
		p, ok := r.DayPass()
		if !ok || p.PassID != f.DayPassID {
			return false
		}
	}
	if f.EntryFrom != nil && r.EntryTime.Before(*f.EntryFrom) {
		return false
	}
	if f.EntryUntil != nil && !r.EntryTime.Before(*f.EntryUntil) {
		return false
	}
	return true
}
