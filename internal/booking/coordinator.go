package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-calendar-console/internal/audit"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/metrics"
	redisclient "github.com/hackgods/clinic-calendar-console/internal/redis"
	"github.com/hackgods/clinic-calendar-console/internal/schedapi"
)

// Creator is the create-appointment call of the scheduling API.
type Creator interface {
	CreateAppointment(ctx context.Context, req schedapi.CreateAppointmentRequest) (*calendar.Appointment, error)
}

type Config struct {
	Region   string         // default region for phone numbers typed without a country code
	Location *time.Location // clinic-local zone used to derive slot ids
}

// Result is returned on a successful booking. Invalidate always lists every family a booking
// can change; callers refetch all of them.
type Result struct {
	Appointment *calendar.Appointment
	SlotID      string
	Invalidate  []calendar.Resource
}

type Coordinator struct {
	creator  Creator
	locker   redisclient.Locker
	recorder audit.Recorder
	metrics  *metrics.Metrics
	cfg      Config
	log      zerolog.Logger
}

func NewCoordinator(creator Creator, locker redisclient.Locker, recorder audit.Recorder, m *metrics.Metrics, cfg Config, log zerolog.Logger) *Coordinator {
	if locker == nil {
		locker = redisclient.NewLocalSlotLocker()
	}
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Coordinator{
		creator:  creator,
		locker:   locker,
		recorder: recorder,
		metrics:  m,
		cfg:      cfg,
		log:      log.With().Str("component", "booking").Logger(),
	}
}

// BookSlot books a slot picked from the week or day grid. The slot's own id is submitted verbatim.
func (c *Coordinator) BookSlot(ctx context.Context, slot calendar.Slot, form Form) (*Result, error) {
	if err := form.validateContact(); err != nil {
		return nil, c.reject(ctx, audit.FlowSlot, slot.SlotID, err)
	}
	if !slot.IsAvailable || calendar.IsWeekend(slot.Datetime.Time) {
		return nil, c.reject(ctx, audit.FlowSlot, slot.SlotID, ErrSlotUnavailable)
	}

	if !slot.Datetime.IsZero() {
		if derived := calendar.SlotID(slot.Datetime.In(c.cfg.Location)); derived != slot.SlotID {
			c.log.Warn().
				Str("slot_id", slot.SlotID).
				Str("derived_slot_id", derived).
				Time("datetime", slot.Datetime.Time).
				Msg("slot id does not match its datetime")
		}
	}

	return c.submit(ctx, audit.FlowSlot, slot.SlotID, form)
}

// BookAdmin books an arbitrary date and time typed by staff. Without consent nothing is sent.
func (c *Coordinator) BookAdmin(ctx context.Context, form Form) (*Result, error) {
	slotID, err := form.ValidateAdmin(c.cfg.Location)
	if err != nil {
		return nil, c.reject(ctx, audit.FlowAdmin, slotID, err)
	}
	return c.submit(ctx, audit.FlowAdmin, slotID, form)
}

func (c *Coordinator) request(slotID string, form Form) schedapi.CreateAppointmentRequest {
	return schedapi.CreateAppointmentRequest{
		PatientName:  strings.TrimSpace(form.PatientName),
		PatientPhone: NormalizePhone(form.PatientPhone, c.cfg.Region),
		SlotID:       slotID,
		VisitType:    form.VisitType.OrDefault(),
		Notes:        strings.TrimSpace(form.Notes),
	}
}

func (c *Coordinator) submit(ctx context.Context, flow audit.Flow, slotID string, form Form) (*Result, error) {
	req := c.request(slotID, form)
	c.record(ctx, audit.NewEvent(audit.EventBookingSubmitted, flow, slotID, map[string]any{
		"visit_type": req.VisitType,
	}))

	var created *calendar.Appointment
	err := c.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		appt, err := c.creator.CreateAppointment(lockCtx, req)
		if err != nil {
			return err
		}
		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, c.reject(ctx, flow, slotID, ErrSubmissionInFlight)
		}

		c.log.Error().Err(err).Str("slot_id", slotID).Str("flow", string(flow)).Msg("booking failed")
		c.metrics.ObserveBooking("failed")
		c.record(ctx, audit.NewEvent(audit.EventBookingFailed, flow, slotID, map[string]any{
			"error": err.Error(),
		}))
		return nil, &SubmitError{SlotID: slotID, Err: err}
	}

	c.log.Info().
		Str("slot_id", slotID).
		Str("booking_id", created.BookingID).
		Str("flow", string(flow)).
		Msg("booking created")
	c.metrics.ObserveBooking("created")
	c.record(ctx, audit.NewEvent(audit.EventBookingCreated, flow, slotID, map[string]any{
		"confirmation_number": created.ConfirmationNumber,
	}).WithBooking(created.BookingID))

	return &Result{
		Appointment: created,
		SlotID:      slotID,
		Invalidate:  calendar.AllResources(),
	}, nil
}

func (c *Coordinator) reject(ctx context.Context, flow audit.Flow, slotID string, cause error) error {
	c.metrics.ObserveBooking("rejected")
	c.record(ctx, audit.NewEvent(audit.EventBookingRejected, flow, slotID, map[string]any{
		"reason": cause.Error(),
	}))
	return cause
}

func (c *Coordinator) record(ctx context.Context, ev audit.Event) {
	if err := c.recorder.Record(ctx, ev); err != nil {
		c.log.Warn().Err(err).Str("event", string(ev.Type)).Str("slot_id", ev.SlotID).Msg("failed to record booking event")
	}
}
