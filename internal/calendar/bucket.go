package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// BucketMinutes is the width of one grid row.
	BucketMinutes = 30

	dayLayout    = "2006-01-02"
	monthLayout  = "2006-01"
	slotIDLayout = "200601021504"
)

var (
	ErrInvalidSlotID   = errors.New("slot id must be YYYYMMDDHHMM")
	ErrInvalidDateTime = errors.New("date must be YYYY-MM-DD and time HH:MM")
)

// BucketKey joins slots and appointments: "<day>-<hour>-<0|30>".
type BucketKey string

func DayString(t time.Time) string {
	return t.Format(dayLayout)
}

func MonthString(t time.Time) string {
	return t.Format(monthLayout)
}

// ParseDay parses a YYYY-MM-DD date at midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayLayout, strings.TrimSpace(s), loc)
}

// Bucket is the only place a bucket key is computed; both indices and the grid axis go through it.
func Bucket(t time.Time) BucketKey {
	return BucketKey(fmt.Sprintf("%s-%d-%d", DayString(t), t.Hour(), t.Minute()/BucketMinutes*BucketMinutes))
}

// BucketStart floors t to the start of its half hour.
func BucketStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute()/BucketMinutes*BucketMinutes, 0, 0, t.Location())
}

// SlotID derives the deterministic slot identifier for a start time.
func SlotID(t time.Time) string {
	return t.Format(slotIDLayout)
}

func ParseSlotID(id string, loc *time.Location) (time.Time, error) {
	if len(id) != len(slotIDLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
	}
	t, err := time.ParseInLocation(slotIDLayout, id, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSlotID, id)
	}
	return t, nil
}

// DeriveSlotID builds a slot id from free-form date ("2025-01-20") and clock ("14:30") fields.
func DeriveSlotID(date, clock string, loc *time.Location) (string, error) {
	t, err := time.ParseInLocation(dayLayout+" 15:04", strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	if err != nil {
		return "", fmt.Errorf("%w: %q %q", ErrInvalidDateTime, date, clock)
	}
	return SlotID(t), nil
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
