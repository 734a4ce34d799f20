package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hackgods/clinic-calendar-console/internal/schedapi"
)

const namespace = "clinic_console"

// Metrics groups the console's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	fetches  *prometheus.CounterVec
	stale    *prometheus.CounterVec
	bookings *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Scheduling API reads by resource family and outcome.",
		}, []string{"resource", "outcome"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Fetch results dropped because the view moved on.",
		}, []string{"resource"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking submissions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.fetches,
		m.stale,
		m.bookings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func fetchOutcome(err error) string {
	var se *schedapi.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "status"
	case errors.Is(err, schedapi.ErrTransport):
		return "transport"
	default:
		return "error"
	}
}

func (m *Metrics) ObserveFetch(resource string, err error) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(resource, fetchOutcome(err)).Inc()
}

func (m *Metrics) ObserveStale(resource string) {
	if m == nil {
		return
	}
	m.stale.WithLabelValues(resource).Inc()
}

func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
