package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Subject identifies who a visit belongs to. It is either a MemberSubject or a
// DayPassSubject; the unexported marker keeps the set closed.
type Subject interface {
	Kind() SubjectKind
	// Identity is the key the single-open-visit rule is enforced on.
	Identity() string
	isSubject()
}

// MemberSubject references a member directory entry.
type MemberSubject struct {
	MemberID   uuid.UUID
	MemberCode string
}

func (MemberSubject) Kind() SubjectKind  { return SubjectMember }
func (s MemberSubject) Identity() string { return s.MemberID.String() }
func (MemberSubject) isSubject()         {}

// DayPassSubject carries a copy of the pass holder's details taken at check-in,
// so history survives later changes to the pass itself.
type DayPassSubject struct {
	Pass DayPassSnapshot
}

func (DayPassSubject) Kind() SubjectKind  { return SubjectDayPass }
func (s DayPassSubject) Identity() string { return s.Pass.PassID }
func (DayPassSubject) isSubject()         {}

// DayPassSnapshot is the denormalized pass holder data stored on the record.
type DayPassSnapshot struct {
	PassID      string    `json:"pass_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ValidDate   time.Time `json:"valid_date"`
	AmountCents int64     `json:"amount_cents"`
}

func (p DayPassSnapshot) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
