package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.Local)
}

func TestBucket_FloorsToHalfHour(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want BucketKey
	}{
		{"on the hour", at(2025, 1, 15, 10, 0), "2025-01-15-10-0"},
		{"inside first half", at(2025, 1, 15, 10, 29), "2025-01-15-10-0"},
		{"on the half", at(2025, 1, 15, 10, 30), "2025-01-15-10-30"},
		{"inside second half", at(2025, 1, 15, 10, 59), "2025-01-15-10-30"},
		{"single digit hour", at(2025, 1, 15, 9, 45), "2025-01-15-9-30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bucket(tt.in))
		})
	}
}

func TestBucket_SlotAndAppointmentAlign(t *testing.T) {
	slot := at(2025, 1, 15, 14, 30)
	appt := at(2025, 1, 15, 14, 42)
	assert.Equal(t, Bucket(slot), Bucket(appt))
	assert.Equal(t, slot, BucketStart(appt))
}

func TestDeriveSlotID(t *testing.T) {
	id, err := DeriveSlotID("2025-01-20", "14:30", time.Local)
	require.NoError(t, err)
	assert.Equal(t, "202501201430", id)

	id, err = DeriveSlotID(" 2025-03-04 ", "9:05", time.Local)
	require.NoError(t, err)
	assert.Equal(t, "202503040905", id)

	_, err = DeriveSlotID("2025-13-01", "10:00", time.Local)
	assert.ErrorIs(t, err, ErrInvalidDateTime)

	_, err = DeriveSlotID("2025-01-20", "", time.Local)
	assert.ErrorIs(t, err, ErrInvalidDateTime)
}

func TestSlotID_MatchesDerivedID(t *testing.T) {
	start := at(2025, 1, 20, 14, 30)
	derived, err := DeriveSlotID("2025-01-20", "14:30", time.Local)
	require.NoError(t, err)
	assert.Equal(t, SlotID(start), derived)

	parsed, err := ParseSlotID(derived, time.Local)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(start))
}

func TestParseSlotID_Rejects(t *testing.T) {
	for _, id := range []string{"", "1", "20250120143", "2025012014300", "20251320x430"} {
		_, err := ParseSlotID(id, time.Local)
		assert.ErrorIs(t, err, ErrInvalidSlotID, id)
	}
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(at(2025, 1, 18, 10, 0)))  // Saturday
	assert.True(t, IsWeekend(at(2025, 1, 19, 10, 0)))  // Sunday
	assert.False(t, IsWeekend(at(2025, 1, 20, 10, 0))) // Monday
}
