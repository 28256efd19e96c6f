// Package store persists attendance records and guards per-identity check-in.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/attendance/models"
	"gymdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps attendance records in process memory.
// It enforces the single-open-visit rule under its mutex the way the
// Postgres partial unique indexes do.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.AttendanceRecord
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[uuid.UUID]*models.AttendanceRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, r *models.AttendanceRecord) error {
	if r == nil {
		return fmt.Errorf("attendance record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[r.ID]; exists {
		return fmt.Errorf("create attendance record %s: %w", r.ID, sentinel.ErrConflict)
	}
	if r.IsOpen() && s.openFor(r.Subject, r.ID) != nil {
		return fmt.Errorf("open visit for %s: %w", r.Subject.Identity(), sentinel.ErrConflict)
	}
	s.records[r.ID] = r.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("attendance record %s: %w", id, sentinel.ErrNotFound)
	}
	return r.Clone(), nil
}

func (s *InMemoryStore) FindOpenByMember(_ context.Context, memberID uuid.UUID) (*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r := s.openFor(models.MemberSubject{MemberID: memberID}, uuid.Nil); r != nil {
		return r.Clone(), nil
	}
	return nil, fmt.Errorf("open visit for member %s: %w", memberID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindOpenByDayPass(_ context.Context, passID string) (*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r := s.openFor(models.DayPassSubject{Pass: models.DayPassSnapshot{PassID: passID}}, uuid.Nil); r != nil {
		return r.Clone(), nil
	}
	return nil, fmt.Errorf("open visit for day pass %s: %w", passID, sentinel.ErrNotFound)
}

// FindByFilters returns matching records, newest entry first.
func (s *InMemoryStore) FindByFilters(_ context.Context, f models.Filters) ([]*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AttendanceRecord
	for _, r := range s.records {
		if f.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.AttendanceRecord) int {
		return b.EntryTime.Compare(a.EntryTime)
	})
	if limit := f.EffectiveLimit(); limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// FindOpenPastDeadline returns open auto-checkout records whose deadline is at or before before, oldest deadline first.
func (s *InMemoryStore) FindOpenPastDeadline(_ context.Context, before time.Time) ([]*models.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AttendanceRecord
	for _, r := range s.records {
		if r.IsOpen() && r.AutoCheckoutEnabled && r.ScheduledCheckoutTime != nil && !r.ScheduledCheckoutTime.After(before) {
			out = append(out, r.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.AttendanceRecord) int {
		return a.ScheduledCheckoutTime.Compare(*b.ScheduledCheckoutTime)
	})
	return out, nil
}

// CountEntriesBetween counts a member's visits with entry in [start, end).
func (s *InMemoryStore) CountEntriesBetween(_ context.Context, memberID uuid.UUID, start, end time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, r := range s.records {
		m, ok := r.Member()
		if !ok || m.MemberID != memberID {
			continue
		}
		if !r.EntryTime.Before(start) && r.EntryTime.Before(end) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) Update(_ context.Context, r *models.AttendanceRecord) error {
	if r == nil {
		return fmt.Errorf("attendance record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[r.ID]; !ok {
		return fmt.Errorf("attendance record %s: %w", r.ID, sentinel.ErrNotFound)
	}
	if r.IsOpen() && s.openFor(r.Subject, r.ID) != nil {
		return fmt.Errorf("open visit for %s: %w", r.Subject.Identity(), sentinel.ErrConflict)
	}
	s.records[r.ID] = r.Clone()
	return nil
}

// UpdateStatus moves a record from one status to another only if it is still in from.
// Reports whether the record changed.
func (s *InMemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, from, to models.Status, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return false, fmt.Errorf("attendance record %s: %w", id, sentinel.ErrNotFound)
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = at
	return true, nil
}

// Execute validates and mutates a record under the store lock.
// Nothing is written when validate fails.
func (s *InMemoryStore) Execute(_ context.Context, id uuid.UUID, validate func(*models.AttendanceRecord) error, mutate func(*models.AttendanceRecord)) (*models.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("attendance record %s: %w", id, sentinel.ErrNotFound)
	}
	r := stored.Clone()
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)
	s.records[id] = r
	return r.Clone(), nil
}

// openFor returns the open record for subject's identity other than exclude. Caller holds the lock.
func (s *InMemoryStore) openFor(subject models.Subject, exclude uuid.UUID) *models.AttendanceRecord {
	for id, r := range s.records {
		if id == exclude || !r.IsOpen() {
			continue
		}
		if r.Subject.Kind() == subject.Kind() && r.Subject.Identity() == subject.Identity() {
			return r
		}
	}
	return nil
}
