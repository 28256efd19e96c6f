package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/member/models"
	"gymdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps members in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*models.Member
	byCode map[string]uuid.UUID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[uuid.UUID]*models.Member),
		byCode: make(map[string]uuid.UUID),
	}
}

// Save inserts or replaces a member. Member codes are unique.
func (s *InMemoryStore) Save(_ context.Context, m *models.Member) error {
	if m == nil {
		return fmt.Errorf("member is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byCode[m.Code]; ok && existing != m.ID {
		return fmt.Errorf("save member %s: %w", m.Code, sentinel.ErrConflict)
	}
	if prev, ok := s.byID[m.ID]; ok && prev.Code != m.Code {
		delete(s.byCode, prev.Code)
	}
	cp := *m
	s.byID[m.ID] = &cp
	s.byCode[m.Code] = m.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[code]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", code, sentinel.ErrNotFound)
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemoryStore) RecordVisit(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("record visit for member %s: %w", id, sentinel.ErrNotFound)
	}
	m.ApplyVisit(at)
	return nil
}
