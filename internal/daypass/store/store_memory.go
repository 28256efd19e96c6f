package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gymdesk/internal/daypass/models"
	"gymdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps day passes in process memory, keyed by pass id.
type InMemoryStore struct {
	mu     sync.RWMutex
	passes map[string]*models.DayPass
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{passes: make(map[string]*models.DayPass)}
}

func (s *InMemoryStore) Save(_ context.Context, p *models.DayPass) error {
	if p == nil {
		return fmt.Errorf("day pass is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.passes {
		if existing.ID != p.ID && (existing.QRCode == p.QRCode || existing.PassID == p.PassID) {
			return fmt.Errorf("save day pass %s: %w", p.PassID, sentinel.ErrConflict)
		}
	}
	cp := *p
	s.passes[p.PassID] = &cp
	return nil
}

func (s *InMemoryStore) FindByPassID(_ context.Context, passID string) (*models.DayPass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.passes[passID]
	if !ok {
		return nil, fmt.Errorf("day pass %s: %w", passID, sentinel.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// FindByCode matches either the printed QR code or the pass id.
func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*models.DayPass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.passes[code]; ok {
		cp := *p
		return &cp, nil
	}
	for _, p := range s.passes {
		if p.QRCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("day pass code %s: %w", code, sentinel.ErrNotFound)
}

// Execute validates and mutates a pass under the store lock.
// The stored pass is untouched when validate fails.
func (s *InMemoryStore) Execute(_ context.Context, passID string, validate func(*models.DayPass) error, mutate func(*models.DayPass)) (*models.DayPass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.passes[passID]
	if !ok {
		return nil, fmt.Errorf("day pass %s: %w", passID, sentinel.ErrNotFound)
	}
	cp := *p
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.passes[passID] = &cp

	out := cp
	return &out, nil
}

// ExpireBefore marks active passes dated before today as expired.
func (s *InMemoryStore) ExpireBefore(_ context.Context, today, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, p := range s.passes {
		if p.ShouldExpire(today) {
			p.ApplyExpiry(now)
			count++
		}
	}
	return count, nil
}
