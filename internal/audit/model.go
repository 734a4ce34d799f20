package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingSubmitted EventType = "BOOKING_SUBMITTED"
	EventBookingCreated   EventType = "BOOKING_CREATED"
	EventBookingFailed    EventType = "BOOKING_FAILED"
	EventBookingRejected  EventType = "BOOKING_REJECTED"
)

// Flow names the booking entry point that produced the event.
type Flow string

const (
	FlowSlot  Flow = "slot"
	FlowAdmin Flow = "admin"
)

type Event struct {
	ID        uuid.UUID
	Type      EventType
	Flow      Flow
	SlotID    string
	BookingID *string
	Payload   []byte
	CreatedAt time.Time
}

// NewEvent stamps an event with a fresh id. Payloads that fail to encode are dropped.
func NewEvent(typ EventType, flow Flow, slotID string, payload map[string]any) Event {
	ev := Event{
		ID:        uuid.New(),
		Type:      typ,
		Flow:      flow,
		SlotID:    slotID,
		CreatedAt: time.Now(),
	}
	if len(payload) > 0 {
		if data, err := json.Marshal(payload); err == nil {
			ev.Payload = data
		}
	}
	return ev
}

func (e Event) WithBooking(bookingID string) Event {
	if bookingID != "" {
		e.BookingID = &bookingID
	}
	return e
}
