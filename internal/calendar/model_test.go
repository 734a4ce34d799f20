package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitType_Labels(t *testing.T) {
	assert.Equal(t, "General Checkup", VisitGeneral.Label())
	assert.Equal(t, "Follow-up", VisitType("follow-up").Label())
	assert.Equal(t, "Vaccination", VisitType(" Vaccination ").Label())
	assert.Equal(t, FallbackVisitLabel, VisitType("acupuncture").Label())
	assert.Equal(t, FallbackVisitLabel, VisitType("").Label())
	assert.False(t, VisitType("acupuncture").Known())
}

func TestVisitType_OrDefault(t *testing.T) {
	assert.Equal(t, VisitGeneral, VisitType("").OrDefault())
	assert.Equal(t, VisitGeneral, VisitType("  ").OrDefault())
	assert.Equal(t, VisitFollowUp, VisitType("Follow-Up").OrDefault())
}

func TestAppointment_DecodesWireFormat(t *testing.T) {
	raw := `{
		"booking_id": "bk_1736950000",
		"confirmation_number": "KM-950000",
		"patient_name": "Marie Tremblay",
		"patient_phone": "+15145551234",
		"appointment_time": "2025-01-15T10:00:00",
		"visit_type": "mystery",
		"provider": "Dr. Kamal",
		"status": "confirmed",
		"booked_via": "ai"
	}`

	var a Appointment
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	assert.Equal(t, at(2025, 1, 15, 10, 0), a.AppointmentTime.Time)
	assert.Equal(t, BookedViaAI, a.BookedVia)
	assert.Nil(t, a.Notes)
	assert.Equal(t, FallbackVisitLabel, a.VisitType.Label())
	assert.Equal(t, BucketKey("2025-01-15-10-0"), Bucket(a.AppointmentTime.Time))
}

func TestLocalTime_Formats(t *testing.T) {
	want := at(2025, 1, 15, 14, 30)

	for _, s := range []string{"2025-01-15T14:30:00", "2025-01-15 14:30:00", "2025-01-15T14:30", "2025-01-15T14:30:00.250000"} {
		got, err := ParseLocalTime(s, time.Local)
		require.NoError(t, err, s)
		assert.True(t, got.Truncate(time.Second).Equal(want), s)
	}

	withOffset, err := ParseLocalTime("2025-01-15T19:30:00Z", time.FixedZone("EST", -5*3600))
	require.NoError(t, err)
	assert.Equal(t, 14, withOffset.Hour())

	_, err = ParseLocalTime("yesterday", time.Local)
	assert.Error(t, err)
}

func TestLocalTime_RoundTrip(t *testing.T) {
	s := Slot{SlotID: "202501151430", Datetime: At(at(2025, 1, 15, 14, 30)), IsAvailable: true}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"datetime":"2025-01-15T14:30:00"`)

	var back Slot
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Datetime.Equal(s.Datetime.Time))

	var empty LocalTime
	require.NoError(t, json.Unmarshal([]byte("null"), &empty))
	assert.True(t, empty.IsZero())
}
