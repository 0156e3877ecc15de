package scheduling

import (
	"errors"
	"fmt"
)

// RejectionReason enumerates why a requested slot was refused.
type RejectionReason string

const (
	ReasonUnknownService RejectionReason = "unknown_service"
	ReasonNonBusinessDay RejectionReason = "non_business_day"
	ReasonTooSoon        RejectionReason = "too_soon"
	ReasonTooFarAhead    RejectionReason = "too_far_ahead"
	ReasonOutsideHours   RejectionReason = "outside_hours"
	ReasonSlotConflict   RejectionReason = "slot_conflict"
)

// ValidationError is an expected operational rejection, surfaced to the
// client in friendly phrasing. On slot conflicts it carries nearby
// alternatives, nearest-first.
type ValidationError struct {
	Reason       RejectionReason
	Message      string
	Alternatives []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// AsValidation unwraps err into a ValidationError, or nil.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
