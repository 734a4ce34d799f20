package calendar

import (
	"strings"
)

type VisitType string

const (
	VisitGeneral     VisitType = "general"
	VisitFollowUp    VisitType = "followup"
	VisitVaccination VisitType = "vaccination"
)

// FallbackVisitLabel is shown for visit types outside the known set.
const FallbackVisitLabel = "Appointment"

var visitLabels = map[VisitType]string{
	VisitGeneral:     "General Checkup",
	VisitFollowUp:    "Follow-up",
	VisitVaccination: "Vaccination",
}

// Normalize folds spelling variants onto the canonical value.
// Unknown values are returned lowercased and trimmed, never rejected.
func (v VisitType) Normalize() VisitType {
	s := strings.ToLower(strings.TrimSpace(string(v)))
	switch s {
	case "follow-up", "follow_up", "follow up":
		return VisitFollowUp
	}
	return VisitType(s)
}

// OrDefault returns the general checkup type when v is empty.
func (v VisitType) OrDefault() VisitType {
	if n := v.Normalize(); n != "" {
		return n
	}
	return VisitGeneral
}

func (v VisitType) Known() bool {
	_, ok := visitLabels[v.Normalize()]
	return ok
}

func (v VisitType) Label() string {
	if label, ok := visitLabels[v.Normalize()]; ok {
		return label
	}
	return FallbackVisitLabel
}

type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type BookedVia string

const (
	BookedViaAI    BookedVia = "ai"
	BookedViaAdmin BookedVia = "admin"
)

// Slot is an offered appointment opportunity published by the scheduling API.
type Slot struct {
	SlotID          string    `json:"slot_id"`
	Datetime        LocalTime `json:"datetime"`
	DurationMinutes int       `json:"duration_minutes"`
	Provider        string    `json:"provider"`
	IsAvailable     bool      `json:"is_available"`
}

// Appointment is a confirmed reservation. The console never mutates one.
type Appointment struct {
	BookingID          string            `json:"booking_id"`
	ConfirmationNumber string            `json:"confirmation_number,omitempty"`
	PatientName        string            `json:"patient_name"`
	PatientPhone       string            `json:"patient_phone"`
	AppointmentTime    LocalTime         `json:"appointment_time"`
	VisitType          VisitType         `json:"visit_type"`
	Provider           string            `json:"provider"`
	Status             AppointmentStatus `json:"status"`
	BookedVia          BookedVia         `json:"booked_via"`
	Notes              *string           `json:"notes,omitempty"`
}

// DayAggregate is the per-day summary returned by the month calendar endpoint.
type DayAggregate struct {
	Date             string `json:"date"`
	DayOfWeek        string `json:"day_of_week"`
	AppointmentCount int    `json:"appointment_count"`
	TotalSlots       int    `json:"total_slots"`
	AvailableSlots   int    `json:"available_slots"`
}

type TranscriptTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// AppointmentDetails is an appointment plus the voice transcript, when it was booked by phone.
type AppointmentDetails struct {
	Appointment
	Transcript []TranscriptTurn `json:"transcript,omitempty"`
}

// Resource names one of the independently fetched collections backing the calendar.
type Resource string

const (
	ResourceAppointments Resource = "appointments"
	ResourceSlots        Resource = "slots"
	ResourceMonth        Resource = "calendar"
)

// AllResources lists every resource a booking can change.
func AllResources() []Resource {
	return []Resource{ResourceAppointments, ResourceMonth, ResourceSlots}
}
