// Package service orchestrates check-in, check-out and visit queries on top of
// the admission policy and the attendance record lifecycle.
//
// Orchestrators return domain errors: NotFound and InvalidOperation for
// caller-facing failures, Internal wrapping the cause for infrastructure ones.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gymdesk/internal/attendance/events"
	"gymdesk/internal/attendance/metrics"
	"gymdesk/internal/attendance/models"
	"gymdesk/internal/attendance/store"
	daypassModels "gymdesk/internal/daypass/models"
	memberModels "gymdesk/internal/member/models"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/sentinel"
	txcontext "gymdesk/pkg/platform/tx"
)

// Store is the attendance repository.
type Store interface {
	Create(ctx context.Context, r *models.AttendanceRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AttendanceRecord, error)
	FindOpenByMember(ctx context.Context, memberID uuid.UUID) (*models.AttendanceRecord, error)
	FindOpenByDayPass(ctx context.Context, passID string) (*models.AttendanceRecord, error)
	FindByFilters(ctx context.Context, f models.Filters) ([]*models.AttendanceRecord, error)
	Execute(ctx context.Context, id uuid.UUID, validate func(*models.AttendanceRecord) error, mutate func(*models.AttendanceRecord)) (*models.AttendanceRecord, error)
}

type MemberDirectory interface {
	FindByCode(ctx context.Context, code string) (*memberModels.Member, error)
	FindByID(ctx context.Context, id uuid.UUID) (*memberModels.Member, error)
	RecordVisit(ctx context.Context, id uuid.UUID, at time.Time) error
}

type DayPassDirectory interface {
	Consume(ctx context.Context, passID string) (*daypassModels.DayPass, error)
}

// Admission is the admission policy. Implementations never fail; lookup
// failures are reported through Validation.LookupErr.
type Admission interface {
	ValidateMember(ctx context.Context, memberCode string) models.Validation
	ValidateDayPass(ctx context.Context, passID string) models.Validation
	ResolveQRCode(ctx context.Context, code string) models.QRResolution
}

// Locker serializes check-ins for one identity.
type Locker interface {
	Acquire(ctx context.Context, key string) (store.Release, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Service is the check-in and check-out orchestrator.
type Service struct {
	records   Store
	members   MemberDirectory
	passes    DayPassDirectory
	admission Admission
	locker    Locker
	tx        TxRunner
	publisher Publisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	loc       *time.Location
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLocation sets the time zone that defines "today" for record queries.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLocker guards validate-then-create per identity across instances.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

// WithTxRunner makes day-pass consumption and record creation atomic.
func WithTxRunner(r TxRunner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(records Store, members MemberDirectory, passes DayPassDirectory, admission Admission, opts ...Option) (*Service, error) {
	if records == nil {
		return nil, errors.New("attendance store is required")
	}
	if members == nil {
		return nil, errors.New("member directory is required")
	}
	if passes == nil {
		return nil, errors.New("day pass directory is required")
	}
	if admission == nil {
		return nil, errors.New("admission validator is required")
	}
	s := &Service{
		records:   records,
		members:   members,
		passes:    passes,
		admission: admission,
		tx:        txcontext.NoopRunner{},
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
		s.tracer = otel.Tracer("gymdesk/attendance")
	}
	return s, nil
}

// lock takes the per-identity check-in lock. A held lock means a concurrent
// check-in for the same identity is in flight.
func (s *Service) lock(ctx context.Context, key, heldReason string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.InvalidOperation(heldReason)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire check-in lock")
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release check-in lock",
				"key", key,
				"error", err,
			)
		}
	}, nil
}

// emit publishes best-effort; failures are logged and never surface to callers.
func (s *Service) emit(ctx context.Context, event events.Event) {
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish attendance event",
			"event_type", event.Type,
			"record_id", event.RecordID,
			"error", err,
		)
	}
}

// admissionError converts a negative validation into the orchestrator error.
func admissionError(v models.Validation, fallback string) error {
	if v.LookupErr != nil {
		return dErrors.Wrap(v.LookupErr, dErrors.CodeInternal, v.Reason)
	}
	reason := v.Reason
	if reason == "" {
		reason = fallback
	}
	return dErrors.InvalidOperation(reason)
}

func isNotFound(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound)
}

// finishSpan records err on span. Caller-facing rejections are not span errors.
func finishSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		span.SetStatus(codes.Error, err.Error())
	}
}
