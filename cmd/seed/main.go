package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/samber/lo"

	"github.com/hackgods/clinic-calendar-console/internal/app"
	"github.com/hackgods/clinic-calendar-console/internal/booking"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/config"
	"github.com/hackgods/clinic-calendar-console/internal/logging"
)

var visitTypes = []string{
	string(calendar.VisitGeneral),
	string(calendar.VisitFollowUp),
	string(calendar.VisitVaccination),
}

var sampleNotes = []string{
	"",
	"",
	"Prefers morning reminders",
	"Bring previous lab results",
	"Second dose",
	"Requested same provider as last visit",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logging.New(cfg, "seed")
	log.Info().Msg("seed starting")

	count := getInt("SEED_BOOKINGS", 20)
	days := getInt("SEED_DAYS", 14)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	start := calendar.Today(time.Now())
	end := start.AddDate(0, 0, days)
	slots, err := a.API.Slots(ctx, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("load slots")
	}

	open := lo.Filter(slots, func(s calendar.Slot, _ int) bool {
		return s.IsAvailable && !calendar.IsWeekend(s.Datetime.Time) && s.Datetime.After(time.Now())
	})
	log.Info().Int("open_slots", len(open)).Int("requested", count).Msg("slots loaded")

	f := gofakeit.New(0)
	f.ShuffleAnySlice(open)

	created, taken := 0, 0
	for _, slot := range open {
		if created >= count {
			break
		}
		form := booking.Form{
			PatientName:  f.Name(),
			PatientPhone: f.Phone(),
			VisitType:    calendar.VisitType(f.RandomString(visitTypes)),
			Notes:        f.RandomString(sampleNotes),
			Consent:      true,
			Date:         calendar.DayString(slot.Datetime.Time),
			Time:         slot.Datetime.Format("15:04"),
		}

		res, err := a.Coordinator.BookAdmin(ctx, form)
		switch {
		case err == nil:
			created++
			log.Info().Str("booking_id", res.Appointment.BookingID).Str("slot_id", res.SlotID).Msg("booking created")
		case errors.Is(err, booking.ErrSubmissionInFlight):
			taken++
		default:
			log.Warn().Err(err).Str("slot_id", slot.SlotID).Msg("booking failed")
		}
	}

	if err := a.Source.Invalidate(ctx, calendar.AllResources()...); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}

	log.Info().Int("created", created).Int("skipped", taken).Msg("seed complete")
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
