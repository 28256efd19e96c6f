package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks MemberDirectory,Admission,Publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"gymdesk/internal/attendance/admission"
	"gymdesk/internal/attendance/events"
	"gymdesk/internal/attendance/metrics"
	"gymdesk/internal/attendance/models"
	attendanceStore "gymdesk/internal/attendance/store"
	daypassModels "gymdesk/internal/daypass/models"
	daypassService "gymdesk/internal/daypass/service"
	daypassStore "gymdesk/internal/daypass/store"
	memberModels "gymdesk/internal/member/models"
	memberStore "gymdesk/internal/member/store"
	dErrors "gymdesk/pkg/domain-errors"
	"gymdesk/pkg/requestcontext"
)

// ServiceSuite exercises the orchestrators end to end on in-memory collaborators.
type ServiceSuite struct {
	suite.Suite
	records   *attendanceStore.InMemoryStore
	members   *memberStore.InMemoryStore
	passStore *daypassStore.InMemoryStore
	publisher *events.MemoryPublisher
	locker    *attendanceStore.InMemoryLocker
	service   *Service
	nine      time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := discard()
	s.records = attendanceStore.NewInMemory()
	s.members = memberStore.NewInMemory()
	s.passStore = daypassStore.NewInMemory()
	s.publisher = events.NewMemoryPublisher()
	s.locker = attendanceStore.NewInMemoryLocker()
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	passes, err := daypassService.New(s.passStore, daypassService.WithLogger(logger))
	s.Require().NoError(err)
	validator, err := admission.New(s.records, s.members, passes, admission.WithLogger(logger), admission.WithMetrics(m))
	s.Require().NoError(err)
	s.service, err = New(s.records, s.members, passes, validator,
		WithLogger(logger),
		WithMetrics(m),
		WithPublisher(s.publisher),
		WithLocker(s.locker),
	)
	s.Require().NoError(err)
	s.nine = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ServiceSuite) seedMember(code string) *memberModels.Member {
	m, err := memberModels.NewMember(uuid.New(), code, "Radia", "Perlman", "radia@example.com",
		s.nine.AddDate(1, 0, 0), s.nine.AddDate(-1, 0, 0))
	s.Require().NoError(err)
	s.Require().NoError(s.members.Save(context.Background(), m))
	return m
}

func (s *ServiceSuite) seedPass(passID string, validDate time.Time) *daypassModels.DayPass {
	p, err := daypassModels.NewDayPass(uuid.New(), passID, "QR-"+passID, "Frances", "Allen", validDate, 2500, s.nine)
	s.Require().NoError(err)
	p.Email = "frances@example.com"
	p.Phone = "555-0199"
	s.Require().NoError(s.passStore.Save(context.Background(), p))
	return p
}

func (s *ServiceSuite) checkInMember(code string, at time.Time) *models.AttendanceView {
	view, err := s.service.CheckInMember(s.at(at), CheckInMemberCommand{MemberCode: code, Method: models.MethodCard})
	s.Require().NoError(err)
	return view
}

func (s *ServiceSuite) requireCode(err error, code dErrors.Code, msg string) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, code), "expected %s, got %v", code, err)
	if msg != "" {
		s.Equal(msg, err.Error())
	}
}

func (s *ServiceSuite) TestNewRequiresCollaborators() {
	_, err := New(nil, s.members, nil, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestCheckInMember() {
	m := s.seedMember("M-1")

	view, err := s.service.CheckInMember(s.at(s.nine), CheckInMemberCommand{
		MemberCode: "M-1",
		Method:     models.MethodBiometric,
		Location:   "main entrance",
		Notes:      "brought a guest",
	})
	s.Require().NoError(err)

	s.Equal(models.SubjectMember, view.Type)
	s.Equal("M-1", view.MemberCode)
	s.Equal("Radia Perlman", view.DisplayName)
	s.Equal(models.StatusOpen, view.Status)
	s.Equal(models.MethodBiometric, view.Method)
	s.True(view.EntryTime.Equal(s.nine))
	s.Require().NotNil(view.ScheduledCheckoutTime)
	s.True(view.ScheduledCheckoutTime.Equal(s.nine.Add(3 * time.Hour)))
	s.Equal([]string{"brought a guest"}, view.Notes)

	stored, err := s.members.FindByID(context.Background(), m.ID)
	s.Require().NoError(err)
	s.Equal(1, stored.TotalCheckIns)
	s.Require().NotNil(stored.LastCheckIn)
	s.True(stored.LastCheckIn.Equal(s.nine))

	emitted := s.publisher.OfType(events.TypeCheckedIn)
	s.Require().Len(emitted, 1)
	s.Equal(view.ID, emitted[0].RecordID)
}

func (s *ServiceSuite) TestCheckInWithoutAutoCheckout() {
	s.seedMember("M-2")
	off := false

	view, err := s.service.CheckInMember(s.at(s.nine), CheckInMemberCommand{
		MemberCode: "M-2", Method: models.MethodCard, AutoCheckout: &off,
	})
	s.Require().NoError(err)
	s.False(view.AutoCheckoutEnabled)
	s.Nil(view.ScheduledCheckoutTime)
}

func (s *ServiceSuite) TestSecondCheckInIsRejected() {
	m := s.seedMember("M-3")
	s.checkInMember("M-3", s.nine)

	_, err := s.service.CheckInMember(s.at(s.nine.Add(time.Minute)), CheckInMemberCommand{MemberCode: "M-3", Method: models.MethodCard})
	s.requireCode(err, dErrors.CodeInvalidOperation, "Member is already checked in")

	open, err := s.records.FindByFilters(context.Background(), models.Filters{
		MemberID: &m.ID, Statuses: []models.Status{models.StatusOpen},
	})
	s.Require().NoError(err)
	s.Len(open, 1)
}

func (s *ServiceSuite) TestCheckInRejectionsCarryReasons() {
	s.Run("unknown member", func() {
		_, err := s.service.CheckInMember(s.at(s.nine), CheckInMemberCommand{MemberCode: "M-404", Method: models.MethodCard})
		s.requireCode(err, dErrors.CodeInvalidOperation, "Member not found")
	})

	s.Run("unknown method", func() {
		s.seedMember("M-METHOD")
		_, err := s.service.CheckInMember(s.at(s.nine), CheckInMemberCommand{MemberCode: "M-METHOD", Method: "telepathy"})
		s.requireCode(err, dErrors.CodeValidation, "")
	})

	s.Run("held lock", func() {
		s.seedMember("M-LOCK")
		release, err := s.locker.Acquire(context.Background(), "member:M-LOCK")
		s.Require().NoError(err)
		defer func() { _ = release(context.Background()) }()

		_, err = s.service.CheckInMember(s.at(s.nine), CheckInMemberCommand{MemberCode: "M-LOCK", Method: models.MethodCard})
		s.requireCode(err, dErrors.CodeInvalidOperation, "Member is already checked in")
	})
}

func (s *ServiceSuite) TestDailyCapBlocksThirdVisit() {
	s.seedMember("M-CAP")
	for _, start := range []time.Time{s.nine, s.nine.Add(2 * time.Hour)} {
		s.checkInMember("M-CAP", start)
		_, err := s.service.CheckOut(s.at(start.Add(30*time.Minute)), CheckOutCommand{Identifier: "M-CAP"})
		s.Require().NoError(err)
	}

	_, err := s.service.CheckInMember(s.at(s.nine.Add(4*time.Hour)), CheckInMemberCommand{MemberCode: "M-CAP", Method: models.MethodCard})
	s.requireCode(err, dErrors.CodeInvalidOperation, "Daily check-in limit reached (2)")
}

func (s *ServiceSuite) TestCheckInDayPass() {
	s.seedPass("DP-1", s.nine)

	view, err := s.service.CheckInDayPass(s.at(s.nine), CheckInDayPassCommand{PassID: "DP-1", Method: models.MethodManualEntry})
	s.Require().NoError(err)

	s.Equal(models.SubjectDayPass, view.Type)
	s.Equal("DP-1", view.DayPassID)
	s.Equal("Frances Allen", view.DisplayName)
	s.Require().NotNil(view.DayPass)
	s.Equal("frances@example.com", view.DayPass.Email)
	s.Equal("555-0199", view.DayPass.Phone)
	s.Equal(int64(2500), view.DayPass.AmountCents)
	s.True(view.AutoCheckoutEnabled)

	pass, err := s.passStore.FindByPassID(context.Background(), "DP-1")
	s.Require().NoError(err)
	s.Equal(daypassModels.StatusUsed, pass.Status)
}

func (s *ServiceSuite) TestDayPassIsSingleUse() {
	s.seedPass("DP-2", s.nine)
	first, err := s.service.CheckInDayPass(s.at(s.nine), CheckInDayPassCommand{PassID: "DP-2", Method: models.MethodQRScan})
	s.Require().NoError(err)
	_, err = s.service.CheckOut(s.at(s.nine.Add(time.Hour)), CheckOutCommand{Identifier: "DP-2"})
	s.Require().NoError(err)

	_, err = s.service.CheckInDayPass(s.at(s.nine.Add(2*time.Hour)), CheckInDayPassCommand{PassID: "DP-2", Method: models.MethodQRScan})
	s.requireCode(err, dErrors.CodeInvalidOperation, "Day pass has already been used")

	all, err := s.records.FindByFilters(context.Background(), models.Filters{DayPassID: "DP-2"})
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal(first.ID, all[0].ID)
}

func (s *ServiceSuite) TestDayPassWrongDay() {
	s.seedPass("DP-0601", s.nine)
	nextDay := s.nine.AddDate(0, 0, 1)

	_, err := s.service.CheckInDayPass(s.at(nextDay), CheckInDayPassCommand{PassID: "DP-0601", Method: models.MethodQRScan})
	s.requireCode(err, dErrors.CodeInvalidOperation, "Day pass has expired")

	s.seedPass("DP-0602", nextDay)
	_, err = s.service.CheckInDayPass(s.at(s.nine), CheckInDayPassCommand{PassID: "DP-0602", Method: models.MethodQRScan})
	s.requireCode(err, dErrors.CodeInvalidOperation, "Day pass is not valid for today")

	pass, err := s.passStore.FindByPassID(context.Background(), "DP-0602")
	s.Require().NoError(err)
	s.Equal(daypassModels.StatusActive, pass.Status)
}

func (s *ServiceSuite) TestCheckInByQR() {
	s.Run("member payload", func() {
		s.seedMember("M-QR")
		view, err := s.service.CheckInByQR(s.at(s.nine), `{"type":"MEMBER_ID","memberId":"M-QR"}`)
		s.Require().NoError(err)
		s.Equal(models.MethodQRScan, view.Method)
		s.Equal("M-QR", view.MemberCode)
		s.True(view.AutoCheckoutEnabled)
	})

	s.Run("day pass code", func() {
		s.seedPass("DP-QR", s.nine)
		view, err := s.service.CheckInByQR(s.at(s.nine), "QR-DP-QR")
		s.Require().NoError(err)
		s.Equal(models.SubjectDayPass, view.Type)
		s.Equal(models.MethodQRScan, view.Method)
	})

	s.Run("unknown code", func() {
		_, err := s.service.CheckInByQR(s.at(s.nine), "GARBAGE")
		s.requireCode(err, dErrors.CodeNotFound, "QR Code with identifier GARBAGE not found")
	})

	s.Run("ineligible entrant", func() {
		_, err := s.service.CheckInByQR(s.at(s.nine.Add(time.Minute)), "M-QR")
		s.requireCode(err, dErrors.CodeInvalidOperation, "Member is already checked in")
	})
}

func (s *ServiceSuite) TestQRScenarioScheduledCheckout() {
	s.seedMember("M-SCEN")
	view, err := s.service.CheckInByQR(s.at(s.nine), "M-SCEN")
	s.Require().NoError(err)
	s.Require().NotNil(view.ScheduledCheckoutTime)
	s.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), *view.ScheduledCheckoutTime)
}

func (s *ServiceSuite) TestCheckOutMinimumDuration() {
	s.seedMember("M-MIN")
	s.checkInMember("M-MIN", s.nine)

	_, err := s.service.CheckOut(s.at(s.nine.Add(2*time.Minute)), CheckOutCommand{Identifier: "M-MIN"})
	s.requireCode(err, dErrors.CodeInvalidOperation, "Minimum check-in duration is 5 minutes")

	view, err := s.service.CheckOut(s.at(s.nine.Add(5*time.Minute)), CheckOutCommand{Identifier: "M-MIN", Notes: "left early"})
	s.Require().NoError(err)
	s.Equal(models.StatusClosedManual, view.Status)
	s.Require().NotNil(view.DurationMinutes)
	s.Equal(5, *view.DurationMinutes)
	s.Equal([]string{"left early"}, view.Notes)
	s.Equal("Radia Perlman", view.DisplayName)
	s.Len(s.publisher.OfType(events.TypeCheckedOut), 1)
}

func (s *ServiceSuite) TestCheckOutFloorsDuration() {
	s.seedMember("M-FLOOR")
	s.checkInMember("M-FLOOR", s.nine)

	view, err := s.service.CheckOut(s.at(s.nine.Add(47*time.Minute+59*time.Second)), CheckOutCommand{Identifier: "M-FLOOR"})
	s.Require().NoError(err)
	s.Equal(47, *view.DurationMinutes)
	s.Equal(int(view.ExitTime.Sub(view.EntryTime)/time.Minute), *view.DurationMinutes)
}

func (s *ServiceSuite) TestCheckOutKeepsExistingNotes() {
	s.seedMember("M-NOTES")
	_, err := s.service.CheckInMember(s.at(s.nine), CheckInMemberCommand{MemberCode: "M-NOTES", Method: models.MethodCard, Notes: "locker 12"})
	s.Require().NoError(err)

	view, err := s.service.CheckOut(s.at(s.nine.Add(time.Hour)), CheckOutCommand{Identifier: "M-NOTES", Notes: "returned key"})
	s.Require().NoError(err)
	s.Equal([]string{"locker 12", "returned key"}, view.Notes)
}

func (s *ServiceSuite) TestCheckOutDayPassByPassID() {
	s.seedPass("DP-OUT", s.nine)
	_, err := s.service.CheckInDayPass(s.at(s.nine), CheckInDayPassCommand{PassID: "DP-OUT", Method: models.MethodCard})
	s.Require().NoError(err)

	view, err := s.service.CheckOut(s.at(s.nine.Add(90*time.Minute)), CheckOutCommand{Identifier: "DP-OUT"})
	s.Require().NoError(err)
	s.Equal("Frances Allen", view.DisplayName)
	s.Equal(90, *view.DurationMinutes)
}

func (s *ServiceSuite) TestCheckOutWithoutOpenVisit() {
	s.seedMember("M-IDLE")

	_, err := s.service.CheckOut(s.at(s.nine), CheckOutCommand{Identifier: "M-IDLE"})
	s.requireCode(err, dErrors.CodeNotFound, "Active check-in with identifier M-IDLE not found")

	_, err = s.service.CheckOut(s.at(s.nine), CheckOutCommand{Identifier: "nobody"})
	s.requireCode(err, dErrors.CodeNotFound, "Active check-in with identifier nobody not found")
}

func (s *ServiceSuite) TestForceCheckOut() {
	s.seedMember("M-FORCE")
	view := s.checkInMember("M-FORCE", s.nine)
	ctx := requestcontext.WithStaff(s.at(s.nine.Add(time.Minute)), requestcontext.Principal{ID: "staff-7", Role: "admin"})

	closed, err := s.service.ForceCheckOut(ctx, view.ID, "fire drill")
	s.Require().NoError(err)
	s.Equal(models.StatusClosedManual, closed.Status)
	s.Equal(1, *closed.DurationMinutes)
	s.Equal([]string{"Force checkout: fire drill"}, closed.Notes)
	s.Equal("Radia Perlman", closed.DisplayName)

	emitted := s.publisher.OfType(events.TypeForceCheckedOut)
	s.Require().Len(emitted, 1)
	s.Equal("staff-7", emitted[0].Actor)
	s.Equal("fire drill", emitted[0].Reason)

	_, err = s.service.ForceCheckOut(ctx, view.ID, "again")
	s.requireCode(err, dErrors.CodeInvalidOperation, "Check-in is already completed")

	_, err = s.service.CheckOut(s.at(s.nine.Add(time.Hour)), CheckOutCommand{Identifier: "M-FORCE"})
	s.requireCode(err, dErrors.CodeNotFound, "")

	missing := uuid.New()
	_, err = s.service.ForceCheckOut(ctx, missing, "gone")
	s.requireCode(err, dErrors.CodeNotFound, "Check-in with identifier "+missing.String()+" not found")

	_, err = s.service.ForceCheckOut(ctx, view.ID, "   ")
	s.requireCode(err, dErrors.CodeValidation, "")
}

func (s *ServiceSuite) TestExtendVisit() {
	s.seedMember("M-EXT")
	view := s.checkInMember("M-EXT", s.nine)

	extended, err := s.service.ExtendVisit(s.at(s.nine.Add(time.Hour)), view.ID, 2)
	s.Require().NoError(err)
	s.True(extended.ScheduledCheckoutTime.Equal(s.nine.Add(5 * time.Hour)))

	_, err = s.service.ExtendVisit(s.at(s.nine), view.ID, 0)
	s.requireCode(err, dErrors.CodeValidation, "")
	_, err = s.service.ExtendVisit(s.at(s.nine), view.ID, 13)
	s.requireCode(err, dErrors.CodeValidation, "")

	_, err = s.service.CheckOut(s.at(s.nine.Add(2*time.Hour)), CheckOutCommand{Identifier: "M-EXT"})
	s.Require().NoError(err)
	_, err = s.service.ExtendVisit(s.at(s.nine.Add(3*time.Hour)), view.ID, 1)
	s.requireCode(err, dErrors.CodeInvalidOperation, "Check-in is already completed")
}

func (s *ServiceSuite) TestQueries() {
	a := s.seedMember("M-A")
	s.seedMember("M-B")
	s.seedPass("DP-Q", s.nine)

	s.checkInMember("M-A", s.nine.Add(-24*time.Hour))
	_, err := s.service.CheckOut(s.at(s.nine.Add(-23*time.Hour)), CheckOutCommand{Identifier: "M-A"})
	s.Require().NoError(err)
	s.checkInMember("M-A", s.nine)
	s.checkInMember("M-B", s.nine.Add(time.Minute))
	_, err = s.service.CheckInDayPass(s.at(s.nine.Add(2*time.Minute)), CheckInDayPassCommand{PassID: "DP-Q", Method: models.MethodCard})
	s.Require().NoError(err)
	ctx := s.at(s.nine.Add(time.Hour))

	s.Run("active", func() {
		views, err := s.service.Active(ctx)
		s.Require().NoError(err)
		s.Len(views, 3)
		s.Equal("DP-Q", views[0].DayPassID, "newest entry first")
	})

	s.Run("today excludes yesterday", func() {
		views, err := s.service.Today(ctx)
		s.Require().NoError(err)
		s.Len(views, 3)
	})

	s.Run("member history with names", func() {
		views, err := s.service.MemberHistory(ctx, "M-A", 0)
		s.Require().NoError(err)
		s.Require().Len(views, 2)
		s.Equal("Radia Perlman", views[1].DisplayName)
		s.Equal(models.StatusClosedManual, views[1].Status)

		limited, err := s.service.MemberHistory(ctx, "M-A", 1)
		s.Require().NoError(err)
		s.Len(limited, 1)
	})

	s.Run("history of unknown member", func() {
		_, err := s.service.MemberHistory(ctx, "M-404", 0)
		s.requireCode(err, dErrors.CodeNotFound, "Member with identifier M-404 not found")
	})

	s.Run("filter by kind resolves names", func() {
		views, err := s.service.Filter(ctx, models.Filters{Kind: models.SubjectMember, MemberID: &a.ID})
		s.Require().NoError(err)
		s.Require().Len(views, 2)
		for _, v := range views {
			s.Equal("Radia Perlman", v.DisplayName)
		}
	})

	s.Run("get", func() {
		active, err := s.service.Active(ctx)
		s.Require().NoError(err)
		got, err := s.service.Get(ctx, active[0].ID)
		s.Require().NoError(err)
		s.Equal(active[0].ID, got.ID)

		_, err = s.service.Get(ctx, uuid.New())
		s.requireCode(err, dErrors.CodeNotFound, "")
	})
}

func (s *ServiceSuite) TestActiveAndTodayAreNotCapped() {
	total := models.DefaultListLimit + 50
	for i := 0; i < total; i++ {
		code := fmt.Sprintf("M-%03d", i)
		s.seedMember(code)
		s.checkInMember(code, s.nine)
	}
	ctx := s.at(s.nine.Add(10 * time.Minute))

	active, err := s.service.Active(ctx)
	s.Require().NoError(err)
	s.Len(active, total)

	today, err := s.service.Today(ctx)
	s.Require().NoError(err)
	s.Len(today, total)

	listed, err := s.service.Filter(ctx, models.Filters{})
	s.Require().NoError(err)
	s.Len(listed, models.DefaultListLimit, "caller-facing filters keep the default cap")
}

func (s *ServiceSuite) TestQueriesFailWhenContextCancelled() {
	s.seedMember("M-C")
	s.checkInMember("M-C", s.nine)

	ctx, cancel := context.WithCancel(s.at(s.nine.Add(time.Minute)))
	cancel()

	_, err := s.service.Active(ctx)
	s.requireCode(err, dErrors.CodeInternal, "")
	s.True(errors.Is(err, context.Canceled))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
