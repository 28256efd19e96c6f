package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gymdesk/internal/attendance/events"
	"gymdesk/internal/attendance/models"
	daypassModels "gymdesk/internal/daypass/models"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/platform/sentinel"
	"gymdesk/pkg/requestcontext"
)

type CheckInMemberCommand struct {
	MemberCode string
	Method     models.Method
	Location   string
	Notes      string
	// AutoCheckout defaults to true when nil.
	AutoCheckout *bool
}

type CheckInDayPassCommand struct {
	PassID   string
	Method   models.Method
	Location string
	Notes    string
}

// CheckInMember admits a member and opens a visit.
func (s *Service) CheckInMember(ctx context.Context, cmd CheckInMemberCommand) (view *models.AttendanceView, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.CheckInMember", trace.WithAttributes(
		attribute.String("member.code", cmd.MemberCode),
		attribute.String("check_in.method", string(cmd.Method)),
	))
	defer func() { finishSpan(span, err) }()

	code := strings.TrimSpace(cmd.MemberCode)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "member code is required")
	}
	if !cmd.Method.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown check-in method %q", cmd.Method))
	}

	unlock, err := s.lock(ctx, "member:"+code, models.ReasonMemberCheckedIn)
	if err != nil {
		return nil, err
	}
	defer unlock()

	validation := s.admission.ValidateMember(ctx, code)
	if !validation.CanCheckIn {
		return nil, admissionError(validation, "Cannot check in")
	}

	member, err := s.members.FindByCode(ctx, code)
	if err != nil {
		if isNotFound(err) {
			return nil, dErrors.NotFound("Member", code)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}

	now := requestcontext.Now(ctx)
	autoCheckout := cmd.AutoCheckout == nil || *cmd.AutoCheckout
	record, err := models.NewAttendanceRecord(uuid.New(),
		models.MemberSubject{MemberID: member.ID, MemberCode: member.Code},
		cmd.Method, cmd.Location, autoCheckout, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open visit")
	}
	record.AppendNote(cmd.Notes, now)

	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.InvalidOperation(models.ReasonMemberCheckedIn)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save check-in")
	}

	// Visit bookkeeping is not part of admission; a failure here must not undo the visit.
	if err := s.members.RecordVisit(ctx, member.ID, now); err != nil {
		s.logger.WarnContext(ctx, "failed to record member visit",
			"member_code", member.Code,
			"error", err,
		)
	}

	s.metrics.IncrementCheckIn(string(models.SubjectMember), string(record.Method))
	s.emit(ctx, events.NewEvent(events.TypeCheckedIn, record, now))
	s.logger.InfoContext(ctx, "member checked in",
		"member_code", member.Code,
		"record_id", record.ID,
		"method", record.Method,
	)
	return models.NewView(record, member.DisplayName()), nil
}

// CheckInDayPass consumes a day pass and opens a visit for its holder.
// Consumption and record creation commit together.
func (s *Service) CheckInDayPass(ctx context.Context, cmd CheckInDayPassCommand) (view *models.AttendanceView, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.CheckInDayPass", trace.WithAttributes(
		attribute.String("day_pass.id", cmd.PassID),
		attribute.String("check_in.method", string(cmd.Method)),
	))
	defer func() { finishSpan(span, err) }()

	passID := strings.TrimSpace(cmd.PassID)
	if passID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "pass id is required")
	}
	if !cmd.Method.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown check-in method %q", cmd.Method))
	}

	unlock, err := s.lock(ctx, "day_pass:"+passID, models.ReasonDayPassCheckedIn)
	if err != nil {
		return nil, err
	}
	defer unlock()

	validation := s.admission.ValidateDayPass(ctx, passID)
	if !validation.CanCheckIn {
		return nil, admissionError(validation, "Cannot check in with day pass")
	}

	now := requestcontext.Now(ctx)
	var record *models.AttendanceRecord
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		pass, err := s.passes.Consume(ctx, passID)
		if err != nil {
			return err
		}
		record, err = models.NewAttendanceRecord(uuid.New(),
			models.DayPassSubject{Pass: snapshotOf(pass)},
			cmd.Method, cmd.Location, true, now)
		if err != nil {
			return err
		}
		record.AppendNote(cmd.Notes, now)
		return s.records.Create(ctx, record)
	})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.InvalidOperation(models.ReasonDayPassCheckedIn)
		case dErrors.HasCode(err, dErrors.CodeNotFound), dErrors.HasCode(err, dErrors.CodeInvalidOperation):
			return nil, err
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check in day pass")
		}
	}

	s.metrics.IncrementCheckIn(string(models.SubjectDayPass), string(record.Method))
	s.emit(ctx, events.NewEvent(events.TypeCheckedIn, record, now))
	s.logger.InfoContext(ctx, "day pass checked in",
		"pass_id", passID,
		"record_id", record.ID,
	)
	pass, _ := record.DayPass()
	return models.NewView(record, pass.DisplayName()), nil
}

// CheckInByQR resolves a scanned code and checks the entrant in with method qr_scan.
func (s *Service) CheckInByQR(ctx context.Context, code string) (view *models.AttendanceView, err error) {
	ctx, span := s.tracer.Start(ctx, "attendance.CheckInByQR")
	defer func() { finishSpan(span, err) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "qr code is required")
	}

	resolution := s.admission.ResolveQRCode(ctx, code)
	if resolution.Validation.LookupErr != nil {
		return nil, admissionError(resolution.Validation, "")
	}
	if !resolution.Resolved() {
		return nil, dErrors.NotFound("QR Code", code)
	}
	span.SetAttributes(attribute.String("subject.kind", string(resolution.Type)))
	if !resolution.Validation.CanCheckIn {
		return nil, admissionError(resolution.Validation, "Cannot check in")
	}

	switch resolution.Type {
	case models.SubjectMember:
		autoCheckout := true
		return s.CheckInMember(ctx, CheckInMemberCommand{
			MemberCode:   resolution.ID,
			Method:       models.MethodQRScan,
			AutoCheckout: &autoCheckout,
		})
	case models.SubjectDayPass:
		return s.CheckInDayPass(ctx, CheckInDayPassCommand{
			PassID: resolution.ID,
			Method: models.MethodQRScan,
		})
	default:
		return nil, dErrors.NotFound("QR Code", code)
	}
}

func snapshotOf(p *daypassModels.DayPass) models.DayPassSnapshot {
	return models.DayPassSnapshot{
		PassID:      p.PassID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Phone:       p.Phone,
		ValidDate:   p.ValidDate,
		AmountCents: p.AmountCents,
	}
}
