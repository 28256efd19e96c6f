package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gymdesk/internal/attendance/events"
	"gymdesk/internal/attendance/models"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/requestcontext"
)

const (
	MinExtensionHours = 1
	MaxExtensionHours = 12
)

type CheckOutCommand struct {
	// Identifier is a member code or a day-pass id.
	Identifier string
	Notes      string
}

// CheckOut closes the open visit of a member or day-pass holder.
func (s *Service) CheckOut(ctx context.Context, cmd CheckOutCommand) (view *models.AttendanceView, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.CheckOut", trace.WithAttributes(
		attribute.String("check_out.identifier", cmd.Identifier),
	))
	defer func() { finishSpan(span, err) }()

	identifier := strings.TrimSpace(cmd.Identifier)
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "identifier is required")
	}

	open, displayName, err := s.findOpenVisit(ctx, identifier)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	closed, err := s.records.Execute(ctx, open.ID,
		func(r *models.AttendanceRecord) error {
			if err := r.CanClose(); err != nil {
				return err
			}
			if !r.IsValidForCheckout(now, models.MinimumVisitDuration) {
				return dErrors.InvalidOperation(models.ReasonMinimumDuration)
			}
			return nil
		},
		func(r *models.AttendanceRecord) {
			r.ApplyClose(now)
			r.AppendNote(cmd.Notes, now)
		},
	)
	if err != nil {
		return nil, s.transitionError(err, open.ID)
	}

	s.metrics.ObserveCheckOut("manual", closed.DurationMinutes)
	s.emit(ctx, events.NewEvent(events.TypeCheckedOut, closed, now))
	s.logger.InfoContext(ctx, "checked out",
		"subject_kind", closed.Subject.Kind(),
		"identifier", identifier,
		"duration_minutes", *closed.DurationMinutes,
	)
	return models.NewView(closed, displayName), nil
}

// findOpenVisit resolves identifier as a member code first, then as a day-pass id.
func (s *Service) findOpenVisit(ctx context.Context, identifier string) (*models.AttendanceRecord, string, error) {
	member, err := s.members.FindByCode(ctx, identifier)
	switch {
	case err == nil:
		open, err := s.records.FindOpenByMember(ctx, member.ID)
		if err == nil {
			return open, member.DisplayName(), nil
		}
		if !isNotFound(err) {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active check-in")
		}
	case !isNotFound(err):
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	open, err := s.records.FindOpenByDayPass(ctx, identifier)
	if err != nil {
		if isNotFound(err) {
			return nil, "", dErrors.NotFound("Active check-in", identifier)
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active check-in")
	}
	pass, _ := open.DayPass()
	return open, pass.DisplayName(), nil
}

// ForceCheckOut closes a visit by record id regardless of the minimum duration.
// Restricting who may call it is the caller's concern.
func (s *Service) ForceCheckOut(ctx context.Context, recordID uuid.UUID, reason string) (view *models.AttendanceView, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.ForceCheckOut", trace.WithAttributes(
		attribute.String("record.id", recordID.String()),
	))
	defer func() { finishSpan(span, err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}

	now := requestcontext.Now(ctx)
	closed, err := s.records.Execute(ctx, recordID,
		func(r *models.AttendanceRecord) error {
			if err := r.CanClose(); err != nil {
				return err
			}
			if now.Before(r.EntryTime) {
				return dErrors.InvalidOperation("Check-out time cannot precede check-in time")
			}
			return nil
		},
		func(r *models.AttendanceRecord) {
			r.ApplyForceClose(reason, now)
		},
	)
	if err != nil {
		return nil, s.transitionError(err, recordID)
	}

	actor := requestcontext.Staff(ctx).ID
	event := events.NewEvent(events.TypeForceCheckedOut, closed, now)
	event.Actor = actor
	event.Reason = reason
	s.metrics.ObserveCheckOut("force", closed.DurationMinutes)
	s.emit(ctx, event)
	s.logger.InfoContext(ctx, "force checked out",
		"record_id", recordID,
		"actor", actor,
		"reason", reason,
	)
	return models.NewView(closed, s.displayName(ctx, closed)), nil
}

// ExtendVisit pushes a visit's scheduled checkout back by hours.
func (s *Service) ExtendVisit(ctx context.Context, recordID uuid.UUID, hours int) (view *models.AttendanceView, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.ExtendVisit", trace.WithAttributes(
		attribute.String("record.id", recordID.String()),
		attribute.Int("extend.hours", hours),
	))
	defer func() { finishSpan(span, err) }()

	if hours < MinExtensionHours || hours > MaxExtensionHours {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("extension must be between %d and %d hours", MinExtensionHours, MaxExtensionHours))
	}

	now := requestcontext.Now(ctx)
	additional := time.Duration(hours) * time.Hour
	extended, err := s.records.Execute(ctx, recordID,
		func(r *models.AttendanceRecord) error { return r.CanExtend(additional) },
		func(r *models.AttendanceRecord) { r.ApplyExtend(additional, now) },
	)
	if err != nil {
		return nil, s.transitionError(err, recordID)
	}

	s.logger.InfoContext(ctx, "visit extended",
		"record_id", recordID,
		"hours", hours,
	)
	return models.NewView(extended, s.displayName(ctx, extended)), nil
}

// transitionError maps lifecycle and store failures on an existing record.
func (s *Service) transitionError(err error, recordID uuid.UUID) error {
	switch {
	case models.IsAlreadyClosed(err):
		return dErrors.InvalidOperation(models.ReasonAlreadyCompleted)
	case isNotFound(err):
		return dErrors.NotFound("Check-in", recordID.String())
	case dErrors.HasCode(err, dErrors.CodeInvalidOperation):
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update check-in")
	}
}
