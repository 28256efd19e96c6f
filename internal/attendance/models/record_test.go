package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	dErrors "gymdesk/pkg/domain-errors"
)

type RecordSuite struct {
	suite.Suite
	entry time.Time
}

func TestRecordSuite(t *testing.T) {
	suite.Run(t, new(RecordSuite))
}

func (s *RecordSuite) SetupTest() {
	s.entry = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

func (s *RecordSuite) memberVisit(autoCheckout bool) *AttendanceRecord {
	r, err := NewAttendanceRecord(uuid.New(), MemberSubject{MemberID: uuid.New(), MemberCode: "M-1"}, MethodQRScan, "Main floor", autoCheckout, s.entry)
	s.Require().NoError(err)
	return r
}

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

func (s *RecordSuite) TestNewAttendanceRecord() {
	s.Run("auto checkout schedules three hours out", func() {
		r := s.memberVisit(true)
		s.Equal(StatusOpen, r.Status)
		s.Require().NotNil(r.ScheduledCheckoutTime)
		s.Equal(s.entry.Add(3*time.Hour), *r.ScheduledCheckoutTime)
		s.Nil(r.ExitTime)
		s.Nil(r.DurationMinutes)
		s.Empty(r.Notes)
	})

	s.Run("no schedule without auto checkout", func() {
		r := s.memberVisit(false)
		s.Nil(r.ScheduledCheckoutTime)
	})

	s.Run("day pass subject", func() {
		r, err := NewAttendanceRecord(uuid.New(), DayPassSubject{Pass: DayPassSnapshot{PassID: "DP-1", FirstName: "Ada"}}, MethodCard, "", true, s.entry)
		s.Require().NoError(err)
		pass, ok := r.DayPass()
		s.True(ok)
		s.Equal("DP-1", pass.PassID)
		_, isMember := r.Member()
		s.False(isMember)
		s.Equal("DP-1", r.Subject.Identity())
	})

	s.Run("rejects missing subject", func() {
		_, err := NewAttendanceRecord(uuid.New(), nil, MethodCard, "", true, s.entry)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects empty member reference", func() {
		_, err := NewAttendanceRecord(uuid.New(), MemberSubject{}, MethodCard, "", true, s.entry)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects empty pass reference", func() {
		_, err := NewAttendanceRecord(uuid.New(), DayPassSubject{}, MethodCard, "", true, s.entry)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects unknown method", func() {
		_, err := NewAttendanceRecord(uuid.New(), MemberSubject{MemberID: uuid.New()}, Method("telepathy"), "", true, s.entry)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// -----------------------------------------------------------------------------
// Transitions
// -----------------------------------------------------------------------------

func (s *RecordSuite) TestCloseComputesFlooredDuration() {
	r := s.memberVisit(true)
	at := s.entry.Add(47*time.Minute + 59*time.Second)

	s.Require().NoError(r.Close(at))

	s.Equal(StatusClosedManual, r.Status)
	s.Equal(at, *r.ExitTime)
	s.Equal(47, *r.DurationMinutes)
	s.Equal(int(r.ExitTime.Sub(r.EntryTime)/time.Minute), *r.DurationMinutes)
}

func (s *RecordSuite) TestCloseTwiceFails() {
	r := s.memberVisit(true)
	s.Require().NoError(r.Close(s.entry.Add(time.Hour)))
	firstExit := *r.ExitTime

	err := r.Close(s.entry.Add(2 * time.Hour))
	s.True(IsAlreadyClosed(err))
	s.Equal(firstExit, *r.ExitTime, "exit time is immutable")
}

func (s *RecordSuite) TestCloseBeforeEntryFails() {
	r := s.memberVisit(true)
	err := r.Close(s.entry.Add(-time.Minute))
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	s.True(r.IsOpen())
}

func (s *RecordSuite) TestAutoCloseUsesDeadline() {
	r := s.memberVisit(true)
	sweepTime := s.entry.Add(3*time.Hour + 5*time.Minute)

	s.Require().NoError(r.AutoClose(sweepTime))

	s.Equal(StatusClosedAuto, r.Status)
	s.Equal(s.entry.Add(3*time.Hour), *r.ExitTime)
	s.Equal(180, *r.DurationMinutes)
	s.Equal(sweepTime, r.UpdatedAt)
}

func (s *RecordSuite) TestAutoCloseWithoutScheduleUsesNow() {
	r := s.memberVisit(false)
	now := s.entry.Add(90 * time.Minute)

	exit := r.ApplyAutoClose(now)

	s.Equal(now, exit)
	s.Equal(90, *r.DurationMinutes)
}

func (s *RecordSuite) TestForceCloseAppendsNote() {
	r := s.memberVisit(true)
	r.AppendNote("Locker 12", s.entry)

	s.Require().NoError(r.ForceClose("left without scanning", s.entry.Add(30*time.Minute)))

	s.Equal(StatusClosedManual, r.Status)
	s.Equal(30, *r.DurationMinutes)
	s.Equal([]string{"Locker 12", "Force checkout: left without scanning"}, r.Notes)

	s.True(IsAlreadyClosed(r.ForceClose("again", s.entry.Add(time.Hour))))
}

func (s *RecordSuite) TestExpire() {
	r := s.memberVisit(false)
	s.Require().NoError(r.Expire(s.entry.AddDate(0, 0, 1)))

	s.Equal(StatusExpired, r.Status)
	s.Nil(r.ExitTime)
	s.Nil(r.DurationMinutes)
	s.True(IsAlreadyClosed(r.Expire(s.entry.AddDate(0, 0, 2))))
}

func (s *RecordSuite) TestShouldAutoClose() {
	deadline := s.entry.Add(3 * time.Hour)

	s.Run("before deadline", func() {
		s.False(s.memberVisit(true).ShouldAutoClose(deadline.Add(-time.Second)))
	})
	s.Run("at deadline", func() {
		s.True(s.memberVisit(true).ShouldAutoClose(deadline))
	})
	s.Run("auto checkout disabled", func() {
		s.False(s.memberVisit(false).ShouldAutoClose(deadline.Add(time.Hour)))
	})
	s.Run("already closed", func() {
		r := s.memberVisit(true)
		s.Require().NoError(r.Close(s.entry.Add(time.Hour)))
		s.False(r.ShouldAutoClose(deadline.Add(time.Hour)))
	})
}

func (s *RecordSuite) TestExtend() {
	s.Run("pushes deadline", func() {
		r := s.memberVisit(true)
		s.Require().NoError(r.Extend(2*time.Hour, s.entry.Add(time.Hour)))
		s.Equal(s.entry.Add(5*time.Hour), *r.ScheduledCheckoutTime)
	})

	s.Run("no schedule is a no-op", func() {
		r := s.memberVisit(false)
		s.Require().NoError(r.Extend(time.Hour, s.entry))
		s.Nil(r.ScheduledCheckoutTime)
	})

	s.Run("terminal record fails", func() {
		r := s.memberVisit(true)
		s.Require().NoError(r.Close(s.entry.Add(time.Hour)))
		s.True(IsAlreadyClosed(r.Extend(time.Hour, s.entry.Add(2*time.Hour))))
	})

	s.Run("non-positive extension fails", func() {
		r := s.memberVisit(true)
		s.True(dErrors.HasCode(r.Extend(0, s.entry), dErrors.CodeInvariantViolation))
	})
}

func (s *RecordSuite) TestIsValidForCheckout() {
	r := s.memberVisit(true)

	s.False(r.IsValidForCheckout(s.entry.Add(2*time.Minute), MinimumVisitDuration))
	s.False(r.IsValidForCheckout(s.entry.Add(4*time.Minute+59*time.Second), MinimumVisitDuration))
	s.True(r.IsValidForCheckout(s.entry.Add(5*time.Minute), MinimumVisitDuration))

	s.Run("closed record uses stored duration", func() {
		closed := s.memberVisit(true)
		s.Require().NoError(closed.Close(s.entry.Add(3 * time.Minute)))
		s.False(closed.IsValidForCheckout(s.entry.Add(time.Hour), MinimumVisitDuration))
	})
}

func (s *RecordSuite) TestAppendNoteIgnoresBlank() {
	r := s.memberVisit(true)
	r.AppendNote("  ", s.entry)
	r.AppendNote(" towel returned ", s.entry)
	s.Equal([]string{"towel returned"}, r.Notes)
}

func (s *RecordSuite) TestFloorMinutes() {
	s.Equal(0, floorMinutes(59*time.Second))
	s.Equal(1, floorMinutes(time.Minute))
	s.Equal(-1, floorMinutes(-30*time.Second))
	s.Equal(-2, floorMinutes(-2*time.Minute))
}
