package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-calendar-console/internal/app"
	"github.com/hackgods/clinic-calendar-console/internal/booking"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/config"
	"github.com/hackgods/clinic-calendar-console/internal/console"
	"github.com/hackgods/clinic-calendar-console/internal/logging"
)

type rootOptions struct {
	date    string
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "calendarctl",
		Short:        "Browse and book the clinic calendar from a terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.date, "date", "", "anchor date YYYY-MM-DD (default today)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warn")

	for _, mode := range []calendar.ViewMode{calendar.ModeMonth, calendar.ModeWeek, calendar.ModeDay} {
		root.AddCommand(newViewCmd(opts, mode))
	}
	root.AddCommand(newWatchCmd(opts), newBookCmd(opts), newDetailsCmd(opts))
	return root
}

// setup loads configuration and wires the engine. Callers must Close the returned app.
func setup(ctx context.Context, opts *rootOptions) (*app.App, time.Time, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, time.Time{}, err
	}
	log := logging.New(cfg, "calendarctl")
	if !opts.verbose {
		log = log.Level(zerolog.WarnLevel)
	}

	anchor := calendar.Today(time.Now())
	if opts.date != "" {
		if anchor, err = calendar.ParseDay(opts.date, time.Local); err != nil {
			return nil, time.Time{}, fmt.Errorf("invalid --date: %w", err)
		}
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, time.Time{}, err
	}
	return a, anchor, nil
}

func newViewCmd(opts *rootOptions, mode calendar.ViewMode) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: fmt.Sprintf("Show the %s view", mode),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, anchor, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			v := console.LoadView(cmd.Context(), a.Source, a.Builder, mode, anchor, a.Metrics)
			renderView(cmd.OutOrStdout(), v)
			if v.Status == calendar.ViewError {
				return v.Err
			}
			return nil
		},
	}
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var modeFlag string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep a view open and redraw it as appointments change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := calendar.ParseViewMode(modeFlag)
			if err != nil {
				return err
			}
			a, anchor, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			s := a.NewSession(mode, anchor, func(v calendar.View) {
				if v.Status == calendar.ViewLoading {
					return
				}
				fmt.Fprint(out, "\033[H\033[2J")
				renderView(out, v)
				fmt.Fprintf(out, "updated %s\n", time.Now().Format(time.Kitchen))
			})
			defer s.Close()

			if err := s.Refresh(cmd.Context()); err != nil {
				return err
			}
			if err := s.Watch(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modeFlag, "mode", string(calendar.ModeWeek), "month, week or day")
	return cmd
}

func newBookCmd(opts *rootOptions) *cobra.Command {
	var form booking.Form
	var visit string
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Create an admin booking from a date and time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, _, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			form.VisitType = calendar.VisitType(visit)
			res, err := a.Coordinator.BookAdmin(cmd.Context(), form)
			if err != nil {
				return errors.New(booking.UserMessage(err))
			}
			if err := a.Source.Invalidate(cmd.Context(), res.Invalidate...); err != nil {
				a.Log.Warn().Err(err).Msg("cache invalidation failed")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "booked %s for %s (slot %s)\n",
				res.Appointment.BookingID, res.Appointment.PatientName, res.SlotID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&form.PatientName, "name", "", "patient name")
	f.StringVar(&form.PatientPhone, "phone", "", "patient phone")
	f.StringVar(&visit, "visit", string(calendar.VisitGeneral), "general, followup or vaccination")
	f.StringVar(&form.Notes, "notes", "", "optional notes")
	f.BoolVar(&form.Consent, "consent", false, "patient consented to be contacted")
	f.StringVar(&form.Date, "on", "", "appointment date YYYY-MM-DD")
	f.StringVar(&form.Time, "at", "", "appointment time HH:MM")
	return cmd
}

func newDetailsCmd(opts *rootOptions) *cobra.Command {
	var follow bool
	cmd := &cobra.Command{
		Use:   "details <booking-id>",
		Short: "Show an appointment and its call transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			d, err := a.API.AppointmentDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderDetails(out, d)
			if !follow {
				return nil
			}

			// Print transcript turns as they arrive until interrupted.
			interval := a.Config.TranscriptPollInterval
			if interval <= 0 {
				interval = 2 * time.Second
			}
			seen := len(d.Transcript)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
				d, err := a.API.AppointmentDetails(cmd.Context(), args[0])
				if err != nil {
					a.Log.Warn().Err(err).Msg("transcript poll failed")
					continue
				}
				for _, turn := range d.Transcript[min(seen, len(d.Transcript)):] {
					fmt.Fprintf(out, "  %s: %s\n", turn.Speaker, turn.Text)
				}
				seen = max(seen, len(d.Transcript))
			}
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep polling the transcript")
	return cmd
}
