// Package sweeper reconciles visits nobody checked out.
//
// Two passes run on independent timers:
//
//   - AutoCheckoutPass closes open auto-checkout visits whose scheduled
//     checkout has passed, recording the scheduled time as the exit.
//   - StaleCleanupPass retires open visits left over from previous days
//     without inventing an exit time.
//
// Both passes select by predicate, so a second run over the same data is a
// no-op. Per-record failures are logged and counted; the batch continues.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gymdesk/internal/attendance/events"
	"gymdesk/internal/attendance/metrics"
	"gymdesk/internal/attendance/models"
	"gymdesk/pkg/platform/dates"
	"gymdesk/pkg/platform/sentinel"
	"gymdesk/pkg/requestcontext"
)

const (
	PassAutoCheckout  = "auto_checkout"
	PassStaleCleanup  = "stale_cleanup"
	PassDayPassExpiry = "day_pass_expiry"
)

// errNotDue marks a candidate that no longer qualifies once reloaded.
var errNotDue = errors.New("record not due for auto-checkout")

// Store is the slice of the attendance repository the passes need.
type Store interface {
	FindOpenPastDeadline(ctx context.Context, before time.Time) ([]*models.AttendanceRecord, error)
	FindByFilters(ctx context.Context, f models.Filters) ([]*models.AttendanceRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.Status, at time.Time) (bool, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.AttendanceRecord) error, mutate func(*models.AttendanceRecord)) (*models.AttendanceRecord, error)
}

// PassExpirer retires day passes whose date has gone by.
type PassExpirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// PassResult summarises one pass over the candidate set.
type PassResult struct {
	Candidates int `json:"candidates"`
	Closed     int `json:"closed"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

type Sweeper struct {
	records   Store
	passes    PassExpirer
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	loc       *time.Location
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithLocation sets the zone whose midnight separates "today" from stale visits.
func WithLocation(loc *time.Location) Option {
	return func(s *Sweeper) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Sweeper) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithPassExpirer enables ExpireDayPasses.
func WithPassExpirer(p PassExpirer) Option {
	return func(s *Sweeper) {
		s.passes = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Sweeper) {
		s.tracer = t
	}
}

func New(records Store, opts ...Option) (*Sweeper, error) {
	if records == nil {
		return nil, fmt.Errorf("attendance store is required")
	}
	s := &Sweeper{
		records:   records,
		publisher: events.NopPublisher{},
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("gymdesk/sweeper")
	}
	return s, nil
}

// AutoCheckoutPass closes every open auto-checkout visit whose scheduled
// checkout is at or before now. Each candidate is reloaded and rechecked under
// the store's write guard, so a visit closed concurrently is skipped.
func (s *Sweeper) AutoCheckoutPass(ctx context.Context) (PassResult, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, now)
	ctx, span := s.tracer.Start(ctx, "sweeper.AutoCheckoutPass")
	defer span.End()
	defer s.metrics.ObserveSweep(PassAutoCheckout, start)

	candidates, err := s.records.FindOpenPastDeadline(ctx, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PassResult{}, fmt.Errorf("find auto-checkout candidates: %w", err)
	}

	result := PassResult{Candidates: len(candidates)}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		closed, err := s.records.Execute(ctx, candidate.ID,
			func(r *models.AttendanceRecord) error {
				if !r.ShouldAutoClose(now) {
					return errNotDue
				}
				return r.CanClose()
			},
			func(r *models.AttendanceRecord) {
				exit := r.ApplyAutoClose(now)
				r.AppendNote("Auto-checkout at "+exit.Format(time.RFC3339), now)
			},
		)
		switch {
		case err == nil:
			result.Closed++
			s.metrics.ObserveCheckOut("auto", closed.DurationMinutes)
			s.emit(ctx, events.NewEvent(events.TypeAutoCheckedOut, closed, now))
		case errors.Is(err, errNotDue), models.IsAlreadyClosed(err), errors.Is(err, sentinel.ErrNotFound):
			result.Skipped++
		default:
			result.Failed++
			s.logger.ErrorContext(ctx, "auto-checkout failed",
				"record_id", candidate.ID,
				"error", err,
			)
		}
	}

	s.record(ctx, span, PassAutoCheckout, result)
	return result, nil
}

// StaleCleanupPass expires open visits whose entry precedes the start of
// today. Expired visits keep no exit time or duration.
func (s *Sweeper) StaleCleanupPass(ctx context.Context) (PassResult, error) {
	start := time.Now()
	now := requestcontext.Now(ctx)
	ctx = requestcontext.WithTime(ctx, now)
	ctx, span := s.tracer.Start(ctx, "sweeper.StaleCleanupPass")
	defer span.End()
	defer s.metrics.ObserveSweep(PassStaleCleanup, start)

	cutoff := dates.StartOfDay(now, s.loc)
	filters := models.Filters{
		Statuses:   []models.Status{models.StatusOpen},
		EntryUntil: &cutoff,
		Limit:      models.MaxListLimit,
	}

	var result PassResult
	seen := make(map[uuid.UUID]struct{})
	for {
		batch, err := s.records.FindByFilters(ctx, filters)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return result, fmt.Errorf("find stale visits: %w", err)
		}

		progressed := false
		for _, r := range batch {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			result.Candidates++
			progressed = true
			changed, err := s.records.UpdateStatus(ctx, r.ID, models.StatusOpen, models.StatusExpired, now)
			switch {
			case err != nil && !errors.Is(err, sentinel.ErrNotFound):
				result.Failed++
				s.logger.ErrorContext(ctx, "stale cleanup failed",
					"record_id", r.ID,
					"error", err,
				)
			case err != nil || !changed:
				result.Skipped++
			default:
				result.Closed++
				r.Status = models.StatusExpired
				r.UpdatedAt = now
				s.emit(ctx, events.NewEvent(events.TypeExpired, r, now))
			}
		}
		if len(batch) < filters.EffectiveLimit() || !progressed {
			break
		}
	}

	s.record(ctx, span, PassStaleCleanup, result)
	return result, nil
}

// ExpireDayPasses retires active day passes dated before today.
func (s *Sweeper) ExpireDayPasses(ctx context.Context) (int, error) {
	if s.passes == nil {
		return 0, nil
	}
	start := time.Now()
	defer s.metrics.ObserveSweep(PassDayPassExpiry, start)

	count, err := s.passes.ExpireStale(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.AddSweepRecords(PassDayPassExpiry, "closed", count)
	return count, nil
}

func (s *Sweeper) emit(ctx context.Context, event events.Event) {
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish attendance event",
			"event_type", event.Type,
			"record_id", event.RecordID,
			"error", err,
		)
	}
}

func (s *Sweeper) record(ctx context.Context, span trace.Span, pass string, result PassResult) {
	span.SetAttributes(
		attribute.Int("sweep.candidates", result.Candidates),
		attribute.Int("sweep.closed", result.Closed),
		attribute.Int("sweep.failed", result.Failed),
	)
	s.metrics.AddSweepRecords(pass, "closed", result.Closed)
	s.metrics.AddSweepRecords(pass, "skipped", result.Skipped)
	s.metrics.AddSweepRecords(pass, "failed", result.Failed)
	if result.Candidates == 0 {
		return
	}
	s.logger.InfoContext(ctx, "sweep pass finished",
		"pass", pass,
		"candidates", result.Candidates,
		"closed", result.Closed,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
}
