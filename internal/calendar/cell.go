package calendar

import (
	"fmt"
	"time"
)

type CellKind string

const (
	KindAppointments CellKind = "appointments"
	KindBookable     CellKind = "bookable"
	KindBlocked      CellKind = "blocked"
	KindClosed       CellKind = "closed"
)

// Cell is one day x bucket position of a week or day grid. It is exactly one of
// *AppointmentsCell, *BookableCell, *BlockedCell or *ClosedCell; presentation code
// switches on the concrete type.
type Cell interface {
	Kind() CellKind
	Start() time.Time
	isCell()
}

type cellBase struct {
	At time.Time
}

func (c cellBase) Start() time.Time { return c.At }
func (cellBase) isCell()            {}

// AppointmentsCell holds every appointment in the bucket. It always hides the slot underneath.
type AppointmentsCell struct {
	cellBase
	Appointments []Appointment
}

func (*AppointmentsCell) Kind() CellKind { return KindAppointments }

// BookableCell is an available weekday slot; clicking it starts the booking workflow.
type BookableCell struct {
	cellBase
	Slot Slot
}

func (*BookableCell) Kind() CellKind { return KindBookable }

// BlockedCell is a weekday bucket with no available slot. Slot is set when the feed had an
// unavailable slot there.
type BlockedCell struct {
	cellBase
	Slot *Slot
}

func (*BlockedCell) Kind() CellKind { return KindBlocked }

// ClosedCell is a weekend bucket without appointments.
type ClosedCell struct {
	cellBase
}

func (*ClosedCell) Kind() CellKind { return KindClosed }

// ResolveCell applies the rendering priority: appointments, then an available weekday slot,
// then closed (weekend) or blocked.
func ResolveCell(at time.Time, slots SlotIndex, appts AppointmentIndex) Cell {
	base := cellBase{At: at}
	if list := appts.At(at); len(list) > 0 {
		return &AppointmentsCell{cellBase: base, Appointments: list}
	}
	if IsWeekend(at) {
		return &ClosedCell{cellBase: base}
	}
	slot, ok := slots.At(at)
	switch {
	case ok && slot.IsAvailable:
		return &BookableCell{cellBase: base, Slot: slot}
	case ok:
		return &BlockedCell{cellBase: base, Slot: &slot}
	default:
		return &BlockedCell{cellBase: base}
	}
}

// HoursAxis is the fixed clinic-hours row layout: Hours hourly rows from OpenHour, two buckets each.
type HoursAxis struct {
	OpenHour int
	Hours    int
}

func DefaultAxis() HoursAxis {
	return HoursAxis{OpenHour: 9, Hours: 9}
}

func (a HoursAxis) Len() int {
	return a.Hours * 60 / BucketMinutes
}

// Times returns the bucket start times of day, in axis order.
func (a HoursAxis) Times(day time.Time) []time.Time {
	y, m, d := day.Date()
	out := make([]time.Time, a.Len())
	for i := range out {
		mins := i * BucketMinutes
		out[i] = time.Date(y, m, d, a.OpenHour+mins/60, mins%60, 0, 0, day.Location())
	}
	return out
}

func (a HoursAxis) Labels() []string {
	out := make([]string, a.Len())
	for i := range out {
		mins := a.OpenHour*60 + i*BucketMinutes
		out[i] = fmt.Sprintf("%d:%02d", mins/60, mins%60)
	}
	return out
}
