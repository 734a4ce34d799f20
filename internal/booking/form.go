package booking

import (
	"strings"
	"time"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

// Form is what staff type into the booking dialog. Date and Time are only read by the admin flow.
type Form struct {
	PatientName  string             `json:"patient_name"`
	PatientPhone string             `json:"patient_phone"`
	VisitType    calendar.VisitType `json:"visit_type"`
	Notes        string             `json:"notes,omitempty"`
	Consent      bool               `json:"consent"`
	Date         string             `json:"date,omitempty"`
	Time         string             `json:"time,omitempty"`
}

func (f Form) validateContact() error {
	if strings.TrimSpace(f.PatientName) == "" {
		return &ValidationError{Field: "patient_name", Reason: "is required"}
	}
	if strings.TrimSpace(f.PatientPhone) == "" {
		return &ValidationError{Field: "patient_phone", Reason: "is required"}
	}
	return nil
}

// ValidateAdmin checks the free-form flow and returns the derived slot id.
func (f Form) ValidateAdmin(loc *time.Location) (string, error) {
	if err := f.validateContact(); err != nil {
		return "", err
	}
	if !f.Consent {
		return "", ErrConsentRequired
	}
	if strings.TrimSpace(f.Date) == "" {
		return "", &ValidationError{Field: "date", Reason: "is required"}
	}
	if strings.TrimSpace(f.Time) == "" {
		return "", &ValidationError{Field: "time", Reason: "is required"}
	}
	id, err := calendar.DeriveSlotID(f.Date, f.Time, loc)
	if err != nil {
		return "", &ValidationError{Field: "time", Reason: "is not a valid date and time"}
	}
	return id, nil
}

// CanSubmitAdmin mirrors the submit button state of the admin dialog.
func (f Form) CanSubmitAdmin(loc *time.Location) bool {
	_, err := f.ValidateAdmin(loc)
	return err == nil
}
