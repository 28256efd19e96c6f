package models

import "time"

// Admission rejection reasons shown to staff and kiosk users verbatim.
const (
	ReasonMemberNotFound      = "Member not found"
	ReasonMembershipExpired   = "Membership has expired"
	ReasonMemberCheckedIn     = "Member is already checked in"
	ReasonDayPassNotFound     = "Day pass not found"
	ReasonDayPassNotToday     = "Day pass is not valid for today"
	ReasonDayPassCheckedIn    = "Day pass is already checked in"
	ReasonDayPassUsed         = "Day pass has already been used"
	ReasonDayPassExpired      = "Day pass has expired"
	ReasonDayPassCancelled    = "Day pass has been cancelled"
	ReasonInvalidQRCode       = "Invalid QR code"
	ReasonMemberLookupFailed  = "Error validating member"
	ReasonDayPassLookupFailed = "Error validating day pass"
	ReasonQRLookupFailed      = "Error validating QR code"
	ReasonMinimumDuration     = "Minimum check-in duration is 5 minutes"
	ReasonAlreadyCompleted    = "Check-in is already completed"
)

// Validation is the outcome of an admission check.
//
// IsValid says whether the identity itself is in good standing; CanCheckIn
// says whether entry is permitted right now. A member at the daily cap is
// valid but cannot check in.
type Validation struct {
	IsValid                  bool       `json:"is_valid"`
	CanCheckIn               bool       `json:"can_check_in"`
	Reason                   string     `json:"reason,omitempty"`
	ValidUntil               *time.Time `json:"valid_until,omitempty"`
	RemainingAdmissionsToday *int       `json:"remaining_admissions_today,omitempty"`

	// LookupErr is the infrastructure failure behind a soft "Error validating"
	// result. Nil for business rejections.
	LookupErr error `json:"-"`
}

// Rejected builds a failed validation for an ineligible identity.
func Rejected(reason string) Validation {
	return Validation{Reason: reason}
}

// LookupFailed builds the soft failure returned when a directory lookup errors.
func LookupFailed(reason string, err error) Validation {
	return Validation{Reason: reason, LookupErr: err}
}

// QRResolution is the outcome of routing a scanned code.
// Type is empty when the code matched nothing.
type QRResolution struct {
	Type       SubjectKind `json:"type"`
	ID         string      `json:"id"`
	Validation Validation  `json:"validation"`
}

func (q QRResolution) Resolved() bool {
	return q.Type != ""
}
