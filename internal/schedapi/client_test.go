package schedapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/api", time.Second)
	require.NoError(t, err)
	return c
}

func TestClient_SlotsSendsInclusiveRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/slots", r.URL.Path)
		assert.Equal(t, "2025-01-12", r.URL.Query().Get("start"))
		assert.Equal(t, "2025-01-18", r.URL.Query().Get("end"))
		_, _ = w.Write([]byte(`[{"slot_id":"202501150900","datetime":"2025-01-15T09:00:00","duration_minutes":30,"provider":"Dr. Kamal","is_available":true}]`))
	})

	start := time.Date(2025, 1, 12, 0, 0, 0, 0, time.Local)
	slots, err := c.Slots(context.Background(), start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "202501150900", slots[0].SlotID)
	assert.Equal(t, 9, slots[0].Datetime.Hour())
}

func TestClient_MonthAggregate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/calendar", r.URL.Path)
		assert.Equal(t, "2024-02", r.URL.Query().Get("month"))
		_, _ = w.Write([]byte(`[{"date":"2024-02-01","day_of_week":"Thursday","appointment_count":2,"total_slots":18,"available_slots":16}]`))
	})

	aggs, err := c.MonthAggregate(context.Background(), time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, 2, aggs[0].AppointmentCount)
}

func TestClient_CreateAppointment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "202501201430", body["slot_id"])
		assert.Equal(t, "followup", body["visit_type"])
		_, hasNotes := body["notes"]
		assert.False(t, hasNotes)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"booking_id":"bk_1","patient_name":"Marie","appointment_time":"2025-01-20T14:30:00","status":"confirmed","booked_via":"admin"}`))
	})

	appt, err := c.CreateAppointment(context.Background(), CreateAppointmentRequest{
		PatientName:  "Marie",
		PatientPhone: "+15145551234",
		SlotID:       "202501201430",
		VisitType:    calendar.VisitFollowUp,
	})
	require.NoError(t, err)
	assert.Equal(t, "bk_1", appt.BookingID)
	assert.Equal(t, calendar.BookedViaAdmin, appt.BookedVia)
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Slot not available"}`, http.StatusConflict)
	})

	_, err := c.CreateAppointment(context.Background(), CreateAppointmentRequest{SlotID: "202501201430"})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Contains(t, se.Body, "Slot not available")
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, time.Second)
	require.NoError(t, err)

	_, err = c.Appointments(context.Background(), time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_DetailsEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/appointments/bk 1/details", r.URL.Path)
		_, _ = w.Write([]byte(`{"booking_id":"bk 1","transcript":[{"speaker":"agent","text":"Hello"}]}`))
	})

	d, err := c.AppointmentDetails(context.Background(), "bk 1")
	require.NoError(t, err)
	require.Len(t, d.Transcript, 1)
	assert.Equal(t, "agent", d.Transcript[0].Speaker)
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("localhost:8000", time.Second)
	assert.Error(t, err)
}
