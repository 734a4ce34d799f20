package calendar

import (
	"time"
)

type MonthCell struct {
	Date    time.Time
	Day     int
	InMonth bool
	IsToday bool
	// Aggregate is only attached to in-month days.
	Aggregate *DayAggregate
}

// Closed reports an in-month day the aggregate says has no slots at all.
func (c MonthCell) Closed() bool {
	return c.InMonth && c.Aggregate != nil && c.Aggregate.TotalSlots == 0
}

// Clickable reports whether selecting the cell opens its day view.
func (c MonthCell) Clickable() bool {
	return c.InMonth
}

// MonthGrid covers the month with whole Sunday-start weeks, so len(Cells) is a
// multiple of 7: 28 for a February that starts on Sunday, otherwise 35 or 42.
type MonthGrid struct {
	Range DateRange
	Cells []MonthCell
}

func (g MonthGrid) Weeks() [][]MonthCell {
	weeks := make([][]MonthCell, 0, len(g.Cells)/7)
	for i := 0; i+7 <= len(g.Cells); i += 7 {
		weeks = append(weeks, g.Cells[i:i+7])
	}
	return weeks
}

func BuildMonth(anchor, now time.Time, aggregates []DayAggregate) MonthGrid {
	r := RangeFor(ModeMonth, anchor)

	byDate := make(map[string]DayAggregate, len(aggregates))
	for _, a := range aggregates {
		byDate[a.Date] = a
	}

	gridStart := WeekStart(r.Start)
	gridEnd := WeekStart(r.End).AddDate(0, 0, 6)
	today := DayString(now)

	var cells []MonthCell
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		cell := MonthCell{
			Date:    d,
			Day:     d.Day(),
			InMonth: d.Month() == r.Start.Month() && d.Year() == r.Start.Year(),
			IsToday: DayString(d) == today,
		}
		if cell.InMonth {
			if agg, ok := byDate[DayString(d)]; ok {
				cell.Aggregate = &agg
			}
		}
		cells = append(cells, cell)
	}

	return MonthGrid{Range: r, Cells: cells}
}
