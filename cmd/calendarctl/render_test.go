package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

func TestCellText(t *testing.T) {
	at := time.Date(2025, 1, 15, 10, 0, 0, 0, time.Local)
	slots := calendar.BuildSlotIndex([]calendar.Slot{
		{SlotID: "202501150930", Datetime: calendar.At(at.Add(-30 * time.Minute)), IsAvailable: true},
	})
	appts := calendar.BuildAppointmentIndex([]calendar.Appointment{
		{BookingID: "bk_1", PatientName: "Ana Silva", AppointmentTime: calendar.At(at), VisitType: "mystery"},
	})

	assert.Equal(t, "Ana Silva (Appointment)", cellText(calendar.ResolveCell(at, slots, appts)))
	assert.Equal(t, "open 202501150930", cellText(calendar.ResolveCell(at.Add(-30*time.Minute), slots, appts)))
	assert.Equal(t, "-", cellText(calendar.ResolveCell(at.Add(time.Hour), slots, appts)))
	assert.Equal(t, "closed", cellText(calendar.ResolveCell(at.AddDate(0, 0, 3), slots, appts)))
}

func TestMonthCellText(t *testing.T) {
	d := time.Date(2025, 1, 15, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "", monthCellText(calendar.MonthCell{Date: d, Day: 15}))
	assert.Equal(t, "[15]", monthCellText(calendar.MonthCell{Date: d, Day: 15, InMonth: true, IsToday: true}))
	assert.Equal(t, "15\nclosed", monthCellText(calendar.MonthCell{
		Date: d, Day: 15, InMonth: true, Aggregate: &calendar.DayAggregate{},
	}))
	assert.Equal(t, "15\n2 appt\n7 open", monthCellText(calendar.MonthCell{
		Date: d, Day: 15, InMonth: true,
		Aggregate: &calendar.DayAggregate{AppointmentCount: 2, TotalSlots: 9, AvailableSlots: 7},
	}))
}

func TestRenderView(t *testing.T) {
	anchor := time.Date(2025, 1, 15, 0, 0, 0, 0, time.Local)
	b := calendar.NewBuilder(calendar.DefaultAxis(), nil, func() time.Time { return anchor })

	var buf bytes.Buffer
	renderView(&buf, b.Build(calendar.ModeWeek, anchor, calendar.LoadingInputs()))
	assert.Contains(t, buf.String(), "Loading...")

	buf.Reset()
	in := calendar.LoadingInputs()
	in.Fail(calendar.ResourceMonth, errors.New("connection refused"))
	renderView(&buf, b.Build(calendar.ModeMonth, anchor, in))
	assert.Contains(t, buf.String(), calendar.GenericLoadError)
	assert.NotContains(t, buf.String(), "connection refused")

	buf.Reset()
	in = calendar.LoadingInputs()
	in.Slots = calendar.Ready([]calendar.Slot{}, 1)
	in.Appointments = calendar.Ready([]calendar.Appointment{
		{BookingID: "bk_1", PatientName: "Ana Silva", AppointmentTime: calendar.At(anchor.Add(10 * time.Hour)), VisitType: calendar.VisitVaccination},
	}, 2)
	renderView(&buf, b.Build(calendar.ModeDay, anchor, in))
	out := buf.String()
	assert.Contains(t, out, "Wednesday, January 15, 2025")
	assert.Contains(t, out, "Ana Silva (Vaccination)")
	assert.Contains(t, out, "Total slots: 0  Available: 0  Booked: 0")
	assert.NotContains(t, out, "Outside clinic hours")

	buf.Reset()
	in.Appointments = calendar.Ready([]calendar.Appointment{
		{BookingID: "bk_2", PatientName: "Late Caller", AppointmentTime: calendar.At(anchor.Add(18*time.Hour + 30*time.Minute)), VisitType: calendar.VisitGeneral},
	}, 3)
	renderView(&buf, b.Build(calendar.ModeWeek, anchor, in))
	out = buf.String()
	assert.Contains(t, out, "Outside clinic hours:")
	assert.Contains(t, out, "Wed 1/15 18:30  Late Caller (General Checkup)")
}
