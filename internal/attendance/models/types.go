package models

import (
	"fmt"
	"strings"
	"time"

	dErrors "gymdesk/pkg/domain-errors"
)

// Admission policy constants.
const (
	AutoCheckoutWindow   = 3 * time.Hour
	DailyAdmissionCap    = 2
	MinimumVisitDuration = 5 * time.Minute
)

// Status is the lifecycle state of an attendance record.
type Status string

const (
	StatusOpen         Status = "open"
	StatusClosedManual Status = "closed_manual"
	StatusClosedAuto   Status = "closed_auto"
	StatusExpired      Status = "expired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusClosedManual, StatusClosedAuto, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s != StatusOpen
}

func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown status %q", v))
	}
	return s, nil
}

// Method is how the entrant was admitted.
type Method string

const (
	MethodQRScan      Method = "qr_scan"
	MethodBiometric   Method = "biometric"
	MethodManualEntry Method = "manual_entry"
	MethodCard        Method = "card"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodQRScan, MethodBiometric, MethodManualEntry, MethodCard:
		return true
	}
	return false
}

func ParseMethod(v string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(v)))
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown check-in method %q", v))
	}
	return m, nil
}

// SubjectKind discriminates the entrant type.
type SubjectKind string

const (
	SubjectMember  SubjectKind = "member"
	SubjectDayPass SubjectKind = "day_pass"
)

func (k SubjectKind) IsValid() bool {
	return k == SubjectMember || k == SubjectDayPass
}

func ParseSubjectKind(v string) (SubjectKind, error) {
	k := SubjectKind(strings.ToLower(strings.TrimSpace(v)))
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown check-in type %q", v))
	}
	return k, nil
}
