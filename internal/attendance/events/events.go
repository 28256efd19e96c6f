// Package events publishes attendance lifecycle changes for downstream consumers.
// Publishing is best-effort: a lost event never rolls back a visit.
package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/attendance/models"
)

type Type string

const (
	TypeCheckedIn       Type = "checked_in"
	TypeCheckedOut      Type = "checked_out"
	TypeForceCheckedOut Type = "force_checked_out"
	TypeAutoCheckedOut  Type = "auto_checked_out"
	TypeExpired         Type = "expired"
)

// Event is the wire shape of a lifecycle change. Keep it transport-agnostic.
type Event struct {
	ID              uuid.UUID          `json:"id"`
	Type            Type               `json:"type"`
	RecordID        uuid.UUID          `json:"record_id"`
	SubjectKind     models.SubjectKind `json:"subject_kind"`
	SubjectID       string             `json:"subject_id"`
	Method          models.Method      `json:"method"`
	Status          models.Status      `json:"status"`
	EntryTime       time.Time          `json:"entry_time"`
	ExitTime        *time.Time         `json:"exit_time,omitempty"`
	DurationMinutes *int               `json:"duration_minutes,omitempty"`
	Actor           string             `json:"actor,omitempty"`
	Reason          string             `json:"reason,omitempty"`
	OccurredAt      time.Time          `json:"occurred_at"`
}

// NewEvent snapshots r for an event of type t.
func NewEvent(t Type, r *models.AttendanceRecord, at time.Time) Event {
	return Event{
		ID:              uuid.New(),
		Type:            t,
		RecordID:        r.ID,
		SubjectKind:     r.Subject.Kind(),
		SubjectID:       subjectID(r),
		Method:          r.Method,
		Status:          r.Status,
		EntryTime:       r.EntryTime,
		ExitTime:        r.ExitTime,
		DurationMinutes: r.DurationMinutes,
		OccurredAt:      at,
	}
}

// subjectID is the public identifier: member code or pass id.
func subjectID(r *models.AttendanceRecord) string {
	if m, ok := r.Member(); ok && m.MemberCode != "" {
		return m.MemberCode
	}
	return r.Subject.Identity()
}

type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }

// MemoryPublisher keeps emitted events in memory for tests and local runs.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

// OfType returns emitted events of type t in emission order.
func (p *MemoryPublisher) OfType(t Type) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
