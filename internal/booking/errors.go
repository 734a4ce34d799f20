package booking

import (
	"errors"
	"fmt"
)

// GenericSaveError is the only message shown for transport or status failures on submit.
const GenericSaveError = "Failed to save appointment"

var (
	ErrConsentRequired    = errors.New("patient consent is required")
	ErrSlotUnavailable    = errors.New("slot is not available for booking")
	ErrSubmissionInFlight = errors.New("a booking for this slot is already being submitted")
)

// ValidationError reports a form field that blocks submission. It never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// SubmitError wraps a failed create call. The caller keeps the form as entered so the user can retry.
type SubmitError struct {
	SlotID string
	Err    error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit booking for slot %s: %v", e.SlotID, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// UserMessage maps a booking error to the text shown next to the form.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrConsentRequired):
		return "Patient consent is required"
	case errors.Is(err, ErrSlotUnavailable):
		return "This slot is no longer available"
	case errors.Is(err, ErrSubmissionInFlight):
		return "This slot is already being booked"
	default:
		return GenericSaveError
	}
}
