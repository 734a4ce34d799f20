package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/console"
	"github.com/hackgods/clinic-calendar-console/internal/metrics"
)

type RouterConfig struct {
	Source      console.Source
	Builder     *calendar.Builder
	Booker      console.Booker
	Invalidator console.Invalidator
	Details     DetailsFetcher
	Metrics     *metrics.Metrics
	Checks      []DependencyCheck
	Location    *time.Location
	Log         zerolog.Logger
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	h := &handlers{
		src:         cfg.Source,
		builder:     cfg.Builder,
		booker:      cfg.Booker,
		invalidator: cfg.Invalidator,
		details:     cfg.Details,
		metrics:     cfg.Metrics,
		loc:         cfg.Location,
		log:         cfg.Log,
	}

	r.Get("/calendar/{mode}", h.getView)
	r.Get("/calendar/{mode}/navigate", h.navigate)
	r.Post("/bookings", h.createBooking)
	r.Get("/appointments/{id}/details", h.appointmentDetails)

	return r
}
