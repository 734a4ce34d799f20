package calendar

import (
	"encoding/json"
	"fmt"
	"time"
)

const wireLayout = "2006-01-02T15:04:05"

// The scheduling API emits naive clinic-local timestamps; some records carry an offset.
var naiveLayouts = []string{
	wireLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// LocalTime is an instant on the clinic's local calendar.
type LocalTime struct {
	time.Time
}

func At(t time.Time) LocalTime {
	return LocalTime{Time: t}
}

// ParseLocalTime accepts RFC 3339 timestamps (converted into loc) and naive timestamps (interpreted in loc).
func ParseLocalTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *LocalTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = LocalTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = LocalTime{}
		return nil
	}
	parsed, err := ParseLocalTime(s, time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(wireLayout))
}
