package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotAt(t time.Time, available bool) Slot {
	return Slot{SlotID: SlotID(t), Datetime: At(t), DurationMinutes: 30, Provider: "Dr. Kamal", IsAvailable: available}
}

func apptAt(id string, t time.Time) Appointment {
	return Appointment{BookingID: id, AppointmentTime: At(t), VisitType: VisitGeneral, Status: StatusConfirmed}
}

func TestResolveCell_Priority(t *testing.T) {
	wed10 := at(2025, 1, 15, 10, 0)
	wed11 := at(2025, 1, 15, 11, 0)
	wed12 := at(2025, 1, 15, 12, 0)
	sat10 := at(2025, 1, 18, 10, 0)
	sat11 := at(2025, 1, 18, 11, 0)

	slots := BuildSlotIndex([]Slot{
		slotAt(wed10, true),
		slotAt(wed11, false),
		slotAt(sat10, true),
		slotAt(sat11, true),
	})
	appts := BuildAppointmentIndex([]Appointment{
		apptAt("bk_wed", wed10.Add(5*time.Minute)),
		apptAt("bk_sat", sat11),
	})

	tests := []struct {
		name string
		at   time.Time
		kind CellKind
	}{
		{"appointment hides available slot", wed10, KindAppointments},
		{"unavailable slot is blocked", wed11, KindBlocked},
		{"no slot is blocked", wed12, KindBlocked},
		{"weekend slot is closed", sat10, KindClosed},
		{"weekend appointment still renders", sat11, KindAppointments},
		{"empty bucket after a booked slot", wed10.Add(30 * time.Minute), KindBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ResolveCell(tt.at, slots, appts)
			assert.Equal(t, tt.kind, c.Kind())
			assert.Equal(t, tt.at, c.Start())
		})
	}

	blocked, ok := ResolveCell(wed11, slots, appts).(*BlockedCell)
	require.True(t, ok)
	require.NotNil(t, blocked.Slot)
	assert.False(t, blocked.Slot.IsAvailable)
}

func TestResolveCell_UnavailableSlotNeverBookable(t *testing.T) {
	for d := 12; d <= 18; d++ {
		for _, tm := range DefaultAxis().Times(day(2025, 1, d)) {
			slots := BuildSlotIndex([]Slot{slotAt(tm, false)})
			_, bookable := ResolveCell(tm, slots, AppointmentIndex{}).(*BookableCell)
			assert.False(t, bookable, tm)
		}
	}
}

func TestHoursAxis(t *testing.T) {
	axis := DefaultAxis()
	require.Equal(t, 18, axis.Len())

	labels := axis.Labels()
	assert.Equal(t, "9:00", labels[0])
	assert.Equal(t, "9:30", labels[1])
	assert.Equal(t, "17:30", labels[len(labels)-1])

	times := axis.Times(day(2025, 1, 15))
	assert.Equal(t, at(2025, 1, 15, 9, 0), times[0])
	assert.Equal(t, at(2025, 1, 15, 17, 30), times[17])
}

func TestBuildWeek(t *testing.T) {
	now := at(2025, 1, 15, 8, 0)
	wed10 := at(2025, 1, 15, 10, 0)
	mon9 := at(2025, 1, 13, 9, 0)

	slots := BuildSlotIndex([]Slot{slotAt(wed10, true), slotAt(mon9, true), slotAt(at(2025, 1, 18, 9, 0), true)})
	appts := BuildAppointmentIndex([]Appointment{apptAt("bk_1", wed10), apptAt("bk_2", wed10)})

	g := BuildWeek(day(2025, 1, 15), now, DefaultAxis(), slots, appts)

	require.Len(t, g.Days, 7)
	require.Len(t, g.Rows, 18)
	assert.True(t, g.Days[3].IsToday)
	assert.True(t, g.Days[0].IsWeekend)
	assert.True(t, g.Days[6].IsWeekend)

	// Row 0 = 9:00; Monday is column 1.
	_, ok := g.Rows[0].Cells[1].(*BookableCell)
	assert.True(t, ok)

	// Row 2 = 10:00; Wednesday is column 3 and both appointments render.
	appCell, ok := g.Rows[2].Cells[3].(*AppointmentsCell)
	require.True(t, ok)
	assert.Len(t, appCell.Appointments, 2)

	// Saturday 9:00 has an available slot but the clinic is closed.
	assert.Equal(t, KindClosed, g.Rows[0].Cells[6].Kind())

	for _, row := range g.Rows {
		for col, c := range row.Cells {
			if g.Days[col].IsWeekend {
				assert.NotEqual(t, KindBookable, c.Kind())
			}
		}
	}
}

func TestBuildWeek_OffHoursAppointmentsAreListed(t *testing.T) {
	late := apptAt("bk_late", at(2025, 1, 15, 18, 30))
	early := apptAt("bk_early", at(2025, 1, 13, 7, 30))
	inHours := apptAt("bk_1", at(2025, 1, 15, 10, 0))
	nextWeek := apptAt("bk_next", at(2025, 1, 20, 19, 0))
	appts := BuildAppointmentIndex([]Appointment{late, inHours, early, nextWeek})

	g := BuildWeek(day(2025, 1, 15), at(2025, 1, 15, 8, 0), DefaultAxis(), SlotIndex{}, appts)
	assert.Equal(t, []Appointment{early, late}, g.OffHours)

	d := BuildDay(day(2025, 1, 15), at(2025, 1, 15, 8, 0), DefaultAxis(), nil, SlotIndex{}, appts)
	assert.Equal(t, []Appointment{late}, d.OffHours)

	// A wider axis brings 18:30 back onto the grid.
	d = BuildDay(day(2025, 1, 15), at(2025, 1, 15, 8, 0), HoursAxis{OpenHour: 9, Hours: 10}, nil, SlotIndex{}, appts)
	assert.Empty(t, d.OffHours)
	assert.Equal(t, KindAppointments, d.Rows[19].Cells[0].Kind())
}

func TestBuildDay_Summary(t *testing.T) {
	d := day(2025, 1, 15)
	list := []Slot{
		slotAt(at(2025, 1, 15, 9, 0), true),
		slotAt(at(2025, 1, 15, 9, 30), false),
		slotAt(at(2025, 1, 15, 10, 0), false),
		slotAt(at(2025, 1, 16, 9, 0), true),
	}
	g := BuildDay(d, at(2025, 1, 20, 0, 0), DefaultAxis(), list, BuildSlotIndex(list), AppointmentIndex{})

	assert.Equal(t, DaySummary{Total: 3, Available: 1, Booked: 2}, g.Summary)
	assert.False(t, g.Day.IsToday)
	require.Len(t, g.Rows, 18)
	for _, row := range g.Rows {
		assert.Len(t, row.Cells, 1)
	}
	assert.Equal(t, KindBookable, g.Rows[0].Cells[0].Kind())
	assert.Equal(t, KindBlocked, g.Rows[1].Cells[0].Kind())
}

func TestBuildMonth_CoversWholeWeeks(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		for _, y := range []int{2024, 2025, 2026} {
			anchor := day(y, m, 10)
			g := BuildMonth(anchor, anchor, nil)

			require.Zero(t, len(g.Cells)%7, anchor)
			assert.Contains(t, []int{28, 35, 42}, len(g.Cells), anchor)
			assert.Equal(t, time.Sunday, g.Cells[0].Date.Weekday())
			assert.Equal(t, time.Saturday, g.Cells[len(g.Cells)-1].Date.Weekday())

			seen := map[int]int{}
			for _, c := range g.Cells {
				if c.InMonth {
					seen[c.Day]++
				}
			}
			assert.Len(t, seen, MonthEnd(anchor).Day(), anchor)
			for d, n := range seen {
				assert.Equal(t, 1, n, "day %d of %s", d, anchor.Format("2006-01"))
			}
		}
	}
}

func TestBuildMonth_FourWeekFebruary(t *testing.T) {
	// February 2026 starts on a Sunday and has 28 days.
	anchor := day(2026, 2, 10)
	g := BuildMonth(anchor, anchor, nil)

	require.Len(t, g.Cells, 28)
	assert.Len(t, g.Weeks(), 4)
	assert.Equal(t, day(2026, 2, 1), g.Cells[0].Date)
	assert.Equal(t, day(2026, 2, 28), g.Cells[27].Date)
	for _, c := range g.Cells {
		assert.True(t, c.InMonth, c.Date)
	}
}

func TestBuildMonth_Aggregates(t *testing.T) {
	aggs := []DayAggregate{
		{Date: "2025-01-15", AppointmentCount: 3, TotalSlots: 18, AvailableSlots: 15},
		{Date: "2025-01-18", TotalSlots: 0},
		{Date: "2024-12-31", AppointmentCount: 9, TotalSlots: 18},
	}
	g := BuildMonth(day(2025, 1, 15), at(2025, 1, 15, 12, 0), aggs)

	// January 2025 starts on a Wednesday: the grid begins Sunday Dec 29.
	assert.Equal(t, day(2024, 12, 29), g.Cells[0].Date)
	dec31 := g.Cells[2]
	assert.False(t, dec31.InMonth)
	assert.False(t, dec31.Clickable())
	assert.Nil(t, dec31.Aggregate)

	jan15 := g.Cells[17]
	require.Equal(t, 15, jan15.Day)
	assert.True(t, jan15.IsToday)
	require.NotNil(t, jan15.Aggregate)
	assert.Equal(t, 3, jan15.Aggregate.AppointmentCount)
	assert.False(t, jan15.Closed())

	jan18 := g.Cells[20]
	require.Equal(t, 18, jan18.Day)
	assert.True(t, jan18.Closed())

	assert.Len(t, g.Weeks(), 5)
}

func TestBuilder_LoadingPlaceholder(t *testing.T) {
	b := NewBuilder(DefaultAxis(), nil, func() time.Time { return at(2025, 1, 15, 8, 0) })
	in := LoadingInputs()
	in.Slots = Ready([]Slot{slotAt(at(2025, 1, 15, 9, 0), true)}, 1)

	v := b.Build(ModeWeek, day(2025, 1, 15), in)
	assert.Equal(t, ViewLoading, v.Status)
	assert.Nil(t, v.Week)

	in.Appointments = Ready([]Appointment(nil), 2)
	v = b.Build(ModeWeek, day(2025, 1, 15), in)
	require.Equal(t, ViewReady, v.Status)
	require.NotNil(t, v.Week)

	// Month view only waits for the aggregate.
	v = b.Build(ModeMonth, day(2025, 1, 15), in)
	assert.Equal(t, ViewLoading, v.Status)
	in.Month = Ready([]DayAggregate{}, 3)
	v = b.Build(ModeMonth, day(2025, 1, 15), in)
	assert.Equal(t, ViewReady, v.Status)
	assert.NotNil(t, v.Month)
}

func TestBuilder_ErrorState(t *testing.T) {
	b := NewBuilder(DefaultAxis(), nil, nil)
	boom := errors.New("boom")
	in := Inputs{
		Slots:        Failed[[]Slot](boom),
		Appointments: Ready([]Appointment(nil), 1),
		Month:        Loading[[]DayAggregate](),
	}
	v := b.Build(ModeDay, day(2025, 1, 15), in)
	assert.Equal(t, ViewError, v.Status)
	assert.ErrorIs(t, v.Err, boom)
	assert.Nil(t, v.Day)
}
