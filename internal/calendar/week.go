package calendar

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

type DayColumn struct {
	Date      time.Time
	IsToday   bool
	IsWeekend bool
}

// Row is one bucket of the hours axis across the grid's days.
type Row struct {
	Label string
	Cells []Cell
}

// WeekGrid is seven day columns over the hours axis. OffHours lists the range's appointments whose
// bucket is not on the axis, in time order, so none is hidden by the grid.
type WeekGrid struct {
	Range    DateRange
	Days     []DayColumn
	Rows     []Row
	OffHours []Appointment
}

func BuildWeek(anchor, now time.Time, axis HoursAxis, slots SlotIndex, appts AppointmentIndex) WeekGrid {
	r := RangeFor(ModeWeek, anchor)
	days := r.Days()
	return WeekGrid{
		Range:    r,
		Days:     columns(days, now),
		Rows:     buildRows(days, axis, slots, appts),
		OffHours: offHours(days, axis, appts),
	}
}

// DaySummary counts the day's slot list; Booked is Total - Available.
type DaySummary struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Booked    int `json:"booked"`
}

func Summarize(day time.Time, slots []Slot) DaySummary {
	key := DayString(day)
	onDay := lo.Filter(slots, func(s Slot, _ int) bool {
		return DayString(s.Datetime.Time) == key
	})
	available := lo.CountBy(onDay, func(s Slot) bool { return s.IsAvailable })
	return DaySummary{
		Total:     len(onDay),
		Available: available,
		Booked:    len(onDay) - available,
	}
}

type DayGrid struct {
	Range    DateRange
	Day      DayColumn
	Summary  DaySummary
	Rows     []Row
	OffHours []Appointment
}

func BuildDay(anchor, now time.Time, axis HoursAxis, slotList []Slot, slots SlotIndex, appts AppointmentIndex) DayGrid {
	r := RangeFor(ModeDay, anchor)
	days := r.Days()
	return DayGrid{
		Range:    r,
		Day:      columns(days, now)[0],
		Summary:  Summarize(r.Start, slotList),
		Rows:     buildRows(days, axis, slots, appts),
		OffHours: offHours(days, axis, appts),
	}
}

func columns(days []time.Time, now time.Time) []DayColumn {
	today := DayString(now)
	out := make([]DayColumn, len(days))
	for i, d := range days {
		out[i] = DayColumn{Date: d, IsToday: DayString(d) == today, IsWeekend: IsWeekend(d)}
	}
	return out
}

func buildRows(days []time.Time, axis HoursAxis, slots SlotIndex, appts AppointmentIndex) []Row {
	labels := axis.Labels()
	rows := make([]Row, axis.Len())
	for i := range rows {
		rows[i] = Row{Label: labels[i], Cells: make([]Cell, len(days))}
	}
	for col, d := range days {
		for i, at := range axis.Times(d) {
			rows[i].Cells[col] = ResolveCell(at, slots, appts)
		}
	}
	return rows
}

// offHours collects appointments that fall on the grid's days but outside every axis bucket, such
// as a 07:30 early visit or one booked after closing.
func offHours(days []time.Time, axis HoursAxis, appts AppointmentIndex) []Appointment {
	var out []Appointment
	for _, d := range days {
		buckets := appts[DayString(d)]
		if len(buckets) == 0 {
			continue
		}
		onAxis := make(map[BucketKey]bool, axis.Len())
		for _, at := range axis.Times(d) {
			onAxis[Bucket(at)] = true
		}
		for key, list := range buckets {
			if !onAxis[key] {
				out = append(out, list...)
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Appointment) int {
		return a.AppointmentTime.Time.Compare(b.AppointmentTime.Time)
	})
	return out
}
