// Package service is the day-pass directory consulted and mutated at admission.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gymdesk/internal/daypass/models"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/dates"
	"gymdesk/pkg/platform/sentinel"
	"gymdesk/pkg/requestcontext"
)

type Store interface {
	FindByPassID(ctx context.Context, passID string) (*models.DayPass, error)
	FindByCode(ctx context.Context, code string) (*models.DayPass, error)
	Execute(ctx context.Context, passID string, validate func(*models.DayPass) error, mutate func(*models.DayPass)) (*models.DayPass, error)
	ExpireBefore(ctx context.Context, today, now time.Time) (int, error)
}

// Service answers day-pass lookups and performs single-use consumption.
type Service struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLocation sets the time zone that defines "today" for a pass's valid date.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("day pass store is required")
	}
	s := &Service{store: store, loc: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// FindByPassID returns the pass with its effective status for today.
func (s *Service) FindByPassID(ctx context.Context, passID string) (*models.DayPass, error) {
	p, err := s.store.FindByPassID(ctx, passID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("Day pass", passID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load day pass")
	}
	return s.withEffectiveStatus(ctx, p), nil
}

// FindByCode resolves a scanned code against the QR code or the pass id.
func (s *Service) FindByCode(ctx context.Context, code string) (*models.DayPass, error) {
	p, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("Day pass", code)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load day pass")
	}
	return s.withEffectiveStatus(ctx, p), nil
}

// Consume transitions an active pass dated today to used and returns the updated pass.
// Runs inside the caller's transaction when ctx carries one.
func (s *Service) Consume(ctx context.Context, passID string) (*models.DayPass, error) {
	now := requestcontext.Now(ctx)
	today := dates.Today(now, s.loc)

	p, err := s.store.Execute(ctx, passID,
		func(p *models.DayPass) error { return p.CanConsume(today) },
		func(p *models.DayPass) { p.ApplyConsume(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.NotFound("Day pass", passID)
		}
		if dErrors.HasCode(err, dErrors.CodeInvalidOperation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume day pass")
	}

	s.logger.InfoContext(ctx, "day pass consumed",
		"pass_id", passID,
	)
	return p, nil
}

// ExpireStale persists the expiry of active passes whose date has passed.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	count, err := s.store.ExpireBefore(ctx, dates.Today(now, s.loc), now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to expire day passes")
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "expired stale day passes",
			"count", count,
		)
	}
	return count, nil
}

func (s *Service) withEffectiveStatus(ctx context.Context, p *models.DayPass) *models.DayPass {
	today := dates.Today(requestcontext.Now(ctx), s.loc)
	p.Status = p.EffectiveStatus(today)
	return p
}
