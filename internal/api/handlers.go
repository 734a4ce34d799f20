package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-calendar-console/internal/booking"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/console"
	"github.com/hackgods/clinic-calendar-console/internal/metrics"
	"github.com/hackgods/clinic-calendar-console/internal/schedapi"
	"github.com/hackgods/clinic-calendar-console/internal/viewcache"
)

// DetailsFetcher loads one appointment with its call transcript.
type DetailsFetcher interface {
	AppointmentDetails(ctx context.Context, bookingID string) (*calendar.AppointmentDetails, error)
}

type handlers struct {
	src         console.Source
	builder     *calendar.Builder
	booker      console.Booker
	invalidator console.Invalidator
	details     DetailsFetcher
	metrics     *metrics.Metrics
	loc         *time.Location
	log         zerolog.Logger
}

func (h *handlers) viewMode(w http.ResponseWriter, r *http.Request) (calendar.ViewMode, time.Time, bool) {
	mode, err := calendar.ParseViewMode(chi.URLParam(r, "mode"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_view_mode", err.Error())
		return "", time.Time{}, false
	}
	date, err := parseDate(r.URL.Query().Get("date"), h.loc, h.builder.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return "", time.Time{}, false
	}
	return mode, date, true
}

func (h *handlers) getView(w http.ResponseWriter, r *http.Request) {
	mode, date, ok := h.viewMode(w, r)
	if !ok {
		return
	}

	v := console.LoadView(r.Context(), h.src, h.builder, mode, date, h.metrics)
	if v.Status == calendar.ViewError {
		h.log.Error().Err(v.Err).Str("mode", string(mode)).Str("date", calendar.DayString(date)).Msg("calendar load failed")
		writeError(w, http.StatusBadGateway, "calendar_unavailable", calendar.GenericLoadError)
		return
	}

	writeJSON(w, http.StatusOK, toView(v))
}

func (h *handlers) navigate(w http.ResponseWriter, r *http.Request) {
	mode, date, ok := h.viewMode(w, r)
	if !ok {
		return
	}

	var next time.Time
	switch r.URL.Query().Get("dir") {
	case "prev":
		next = calendar.Previous(mode, date)
	case "next":
		next = calendar.Next(mode, date)
	case "today":
		next = calendar.Today(h.builder.Now())
	default:
		writeError(w, http.StatusBadRequest, "invalid_direction", "dir must be prev, next or today")
		return
	}

	writeJSON(w, http.StatusOK, NavigateResponse{
		Mode:   string(mode),
		Anchor: next.Format(dateLayout),
		Range:  toRange(calendar.RangeFor(mode, next)),
	})
}

func (h *handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var req BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	var (
		res *booking.Result
		err error
	)
	if req.SlotID == "" {
		res, err = h.booker.BookAdmin(r.Context(), req.Form)
	} else {
		slot, lookupErr := h.findSlot(r.Context(), req.SlotID, req.Date)
		if lookupErr != nil {
			handleBookingError(w, lookupErr)
			return
		}
		res, err = h.booker.BookSlot(r.Context(), *slot, req.Form)
	}
	if err != nil {
		handleBookingError(w, err)
		return
	}

	if h.invalidator != nil {
		if err := h.invalidator.Invalidate(r.Context(), res.Invalidate...); err != nil {
			h.log.Warn().Err(err).Str("slot_id", res.SlotID).Msg("cache invalidation failed")
		}
	}

	resp := BookingResponse{SlotID: res.SlotID, Invalidated: res.Invalidate}
	if res.Appointment != nil {
		resp.Appointment = toAppointment(*res.Appointment)
	}
	writeJSON(w, http.StatusCreated, resp)
}

var errSlotNotFound = errors.New("slot not found")

// findSlot looks the slot up in the day it belongs to. Ids that do not encode a time fall back
// to the date sent with the form.
func (h *handlers) findSlot(ctx context.Context, slotID, date string) (*calendar.Slot, error) {
	day, err := calendar.ParseSlotID(slotID, h.loc)
	if err != nil {
		if strings.TrimSpace(date) == "" {
			return nil, &booking.ValidationError{Field: "slot_id", Reason: "does not encode a date; send date as well"}
		}
		if day, err = calendar.ParseDay(date, h.loc); err != nil {
			return nil, &booking.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
	}
	day = calendar.StartOfDay(day)

	// Availability is checked against the upstream, not a cached view.
	slots, err := h.src.Slots(viewcache.Fresh(ctx), day, day)
	h.metrics.ObserveFetch(string(calendar.ResourceSlots), err)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if slots[i].SlotID == slotID {
			return &slots[i], nil
		}
	}
	return nil, errSlotNotFound
}

func (h *handlers) appointmentDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "invalid_booking_id", "id is required")
		return
	}

	d, err := h.details.AppointmentDetails(r.Context(), id)
	if err != nil {
		if schedapi.IsStatus(err, http.StatusNotFound) {
			writeError(w, http.StatusNotFound, "appointment_not_found", "no appointment with that id")
			return
		}
		h.log.Error().Err(err).Str("booking_id", id).Msg("appointment details failed")
		writeError(w, http.StatusBadGateway, "details_unavailable", calendar.GenericLoadError)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		AppointmentResponse
		Transcript []calendar.TranscriptTurn `json:"transcript"`
	}{toAppointment(d.Appointment), d.Transcript})
}

func handleBookingError(w http.ResponseWriter, err error) {
	var ve *booking.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, "invalid_form", ve.Error())
	case errors.Is(err, booking.ErrConsentRequired):
		writeError(w, http.StatusUnprocessableEntity, "consent_required", booking.UserMessage(err))
	case errors.Is(err, booking.ErrSubmissionInFlight):
		writeError(w, http.StatusConflict, "submission_in_flight", booking.UserMessage(err))
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", booking.UserMessage(err))
	case errors.Is(err, errSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "booking_failed", booking.GenericSaveError)
	}
}
