package calendar

import (
	"errors"
	"fmt"
	"time"
)

type ViewMode string

const (
	ModeMonth ViewMode = "month"
	ModeWeek  ViewMode = "week"
	ModeDay   ViewMode = "day"
)

var ErrUnknownViewMode = errors.New("view mode must be month, week or day")

func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(s); m {
	case ModeMonth, ModeWeek, ModeDay:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownViewMode, s)
}

// DateRange is the inclusive day window a view fetches, plus its header title.
type DateRange struct {
	Start time.Time
	End   time.Time
	Title string
}

func (r DateRange) StartDay() string { return DayString(r.Start) }
func (r DateRange) EndDay() string   { return DayString(r.End) }

// Key identifies the range for stale-response checks and cache keys.
func (r DateRange) Key() string {
	return r.StartDay() + ".." + r.EndDay()
}

// Days lists each midnight from Start through End.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := StartOfDay(r.Start); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns the Sunday on or before t.
func WeekStart(t time.Time) time.Time {
	d := StartOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

func RangeFor(mode ViewMode, anchor time.Time) DateRange {
	switch mode {
	case ModeMonth:
		return DateRange{
			Start: MonthStart(anchor),
			End:   MonthEnd(anchor),
			Title: anchor.Format("January 2006"),
		}
	case ModeWeek:
		start := WeekStart(anchor)
		end := start.AddDate(0, 0, 6)
		return DateRange{Start: start, End: end, Title: weekTitle(start, end)}
	default:
		day := StartOfDay(anchor)
		return DateRange{Start: day, End: day, Title: day.Format("Monday, January 2, 2006")}
	}
}

func weekTitle(start, end time.Time) string {
	switch {
	case start.Year() != end.Year():
		return start.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
	case start.Month() != end.Month():
		return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	default:
		return start.Format("January 2") + " - " + end.Format("2, 2006")
	}
}

func Previous(mode ViewMode, anchor time.Time) time.Time {
	return shift(mode, anchor, -1)
}

func Next(mode ViewMode, anchor time.Time) time.Time {
	return shift(mode, anchor, 1)
}

// Today resets the anchor to the current date whatever the mode.
func Today(now time.Time) time.Time {
	return StartOfDay(now)
}

func shift(mode ViewMode, anchor time.Time, dir int) time.Time {
	switch mode {
	case ModeMonth:
		return addMonthsClamped(anchor, dir)
	case ModeWeek:
		return anchor.AddDate(0, 0, 7*dir)
	default:
		return anchor.AddDate(0, 0, dir)
	}
}

// addMonthsClamped keeps the day of month where it exists, else uses the target month's last day.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
