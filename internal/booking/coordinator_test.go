package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-calendar-console/internal/audit"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/schedapi"
)

type fakeCreator struct {
	mu    sync.Mutex
	reqs  []schedapi.CreateAppointmentRequest
	err   error
	block chan struct{}
}

func (f *fakeCreator) CreateAppointment(ctx context.Context, req schedapi.CreateAppointmentRequest) (*calendar.Appointment, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &calendar.Appointment{BookingID: "bk_" + req.SlotID, PatientName: req.PatientName, VisitType: req.VisitType}, nil
}

func (f *fakeCreator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type memRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *memRecorder) Record(_ context.Context, ev audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *memRecorder) types() []audit.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func newCoordinator(creator Creator, rec audit.Recorder) *Coordinator {
	return NewCoordinator(creator, nil, rec, nil, Config{Region: "CA", Location: time.Local}, zerolog.Nop())
}

func validForm() Form {
	return Form{
		PatientName:  " Marie Tremblay ",
		PatientPhone: "(514) 872-0311",
		Consent:      true,
		Date:         "2025-01-20",
		Time:         "14:30",
	}
}

func TestBookAdmin_DerivesSlotID(t *testing.T) {
	creator := &fakeCreator{}
	rec := &memRecorder{}
	c := newCoordinator(creator, rec)

	res, err := c.BookAdmin(context.Background(), validForm())
	require.NoError(t, err)

	require.Equal(t, 1, creator.calls())
	req := creator.reqs[0]
	assert.Equal(t, "202501201430", req.SlotID)
	assert.Equal(t, "Marie Tremblay", req.PatientName)
	assert.Equal(t, calendar.VisitGeneral, req.VisitType)
	assert.Equal(t, "+15148720311", req.PatientPhone)

	assert.Equal(t, "202501201430", res.SlotID)
	assert.ElementsMatch(t, []calendar.Resource{calendar.ResourceAppointments, calendar.ResourceSlots, calendar.ResourceMonth}, res.Invalidate)
	assert.Equal(t, []audit.EventType{audit.EventBookingSubmitted, audit.EventBookingCreated}, rec.types())
	require.NotNil(t, rec.events[1].BookingID)
	assert.Equal(t, "bk_202501201430", *rec.events[1].BookingID)
}

func TestBookAdmin_WithoutConsentNeverPosts(t *testing.T) {
	creator := &fakeCreator{}
	rec := &memRecorder{}
	c := newCoordinator(creator, rec)

	form := validForm()
	form.Consent = false
	assert.False(t, form.CanSubmitAdmin(time.Local))

	_, err := c.BookAdmin(context.Background(), form)
	assert.ErrorIs(t, err, ErrConsentRequired)
	assert.Zero(t, creator.calls())
	assert.Equal(t, []audit.EventType{audit.EventBookingRejected}, rec.types())
}

func TestBookAdmin_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"missing name", func(f *Form) { f.PatientName = "  " }, "patient_name"},
		{"missing phone", func(f *Form) { f.PatientPhone = "" }, "patient_phone"},
		{"missing date", func(f *Form) { f.Date = "" }, "date"},
		{"missing time", func(f *Form) { f.Time = "" }, "time"},
		{"bad time", func(f *Form) { f.Time = "25:00" }, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &fakeCreator{}
			form := validForm()
			tt.edit(&form)

			_, err := newCoordinator(creator, nil).BookAdmin(context.Background(), form)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Zero(t, creator.calls())
		})
	}
}

func TestBookSlot_UsesSlotIDVerbatim(t *testing.T) {
	creator := &fakeCreator{}
	c := newCoordinator(creator, nil)
	slot := calendar.Slot{
		SlotID:      "legacy-0930",
		Datetime:    calendar.At(time.Date(2025, 1, 20, 9, 30, 0, 0, time.Local)),
		IsAvailable: true,
	}

	form := validForm()
	form.Consent = false
	form.VisitType = "Follow-Up"
	res, err := c.BookSlot(context.Background(), slot, form)
	require.NoError(t, err)
	assert.Equal(t, "legacy-0930", res.SlotID)
	assert.Equal(t, "legacy-0930", creator.reqs[0].SlotID)
	assert.Equal(t, calendar.VisitFollowUp, creator.reqs[0].VisitType)
}

func TestBookSlot_RejectsUnavailableAndWeekend(t *testing.T) {
	creator := &fakeCreator{}
	c := newCoordinator(creator, nil)

	taken := calendar.Slot{SlotID: "202501200930", Datetime: calendar.At(time.Date(2025, 1, 20, 9, 30, 0, 0, time.Local))}
	_, err := c.BookSlot(context.Background(), taken, validForm())
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	saturday := calendar.Slot{SlotID: "202501180930", Datetime: calendar.At(time.Date(2025, 1, 18, 9, 30, 0, 0, time.Local)), IsAvailable: true}
	_, err = c.BookSlot(context.Background(), saturday, validForm())
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	assert.Zero(t, creator.calls())
}

func TestSubmit_FailureIsGenericAndRecorded(t *testing.T) {
	upstream := &schedapi.StatusError{Method: "POST", Path: "/appointments", StatusCode: 500}
	creator := &fakeCreator{err: upstream}
	rec := &memRecorder{}
	c := newCoordinator(creator, rec)

	_, err := c.BookAdmin(context.Background(), validForm())
	require.Error(t, err)

	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "202501201430", se.SlotID)
	assert.True(t, errors.Is(err, upstream))
	assert.Equal(t, GenericSaveError, UserMessage(err))
	assert.Equal(t, []audit.EventType{audit.EventBookingSubmitted, audit.EventBookingFailed}, rec.types())
	assert.Equal(t, 1, creator.calls(), "no automatic retry")
}

func TestSubmit_DoubleSubmitIsRejected(t *testing.T) {
	creator := &fakeCreator{block: make(chan struct{})}
	c := newCoordinator(creator, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.BookAdmin(context.Background(), validForm())
		done <- err
	}()

	require.Eventually(t, func() bool { return creator.calls() == 1 }, time.Second, 5*time.Millisecond)

	_, err := c.BookAdmin(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Equal(t, "This slot is already being booked", UserMessage(err))

	close(creator.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, creator.calls())
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "patient_name is required", UserMessage(&ValidationError{Field: "patient_name", Reason: "is required"}))
	assert.Equal(t, "Patient consent is required", UserMessage(ErrConsentRequired))
	assert.Equal(t, GenericSaveError, UserMessage(schedapi.ErrTransport))
}
