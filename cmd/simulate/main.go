package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-calendar-console/internal/api"
	"github.com/hackgods/clinic-calendar-console/internal/booking"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

type SimConfig struct {
	ConsoleURL    string
	Duration      time.Duration
	Workers       int
	ViewRatio     float64
	NavigateRatio float64
	BookingRatio  float64
	DetailsRatio  float64
	Horizon       int // days ahead a worker may look at
}

// DataPool collects ids discovered while rendering, so bookings and detail reads target real data.
type DataPool struct {
	mu       sync.RWMutex
	slots    map[string]struct{}
	bookings []string
}

func NewDataPool() *DataPool {
	return &DataPool{slots: make(map[string]struct{})}
}

func (dp *DataPool) Harvest(v *api.ViewResponse) {
	var grids []api.GridResponse
	if v.Week != nil {
		grids = append(grids, *v.Week)
	}
	if v.Day != nil {
		grids = append(grids, v.Day.GridResponse)
	}

	dp.mu.Lock()
	defer dp.mu.Unlock()
	for _, g := range grids {
		for _, row := range g.Rows {
			for _, c := range row.Cells {
				switch c.Kind {
				case calendar.KindBookable:
					dp.slots[c.SlotID] = struct{}{}
				case calendar.KindAppointments:
					for _, a := range c.Appointments {
						dp.bookings = append(dp.bookings, a.BookingID)
					}
				}
			}
		}
	}
}

// TakeSlot removes and returns a random known open slot.
func (dp *DataPool) TakeSlot(rng *rand.Rand) (string, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.slots) == 0 {
		return "", false
	}
	n := rng.Intn(len(dp.slots))
	for id := range dp.slots {
		if n == 0 {
			delete(dp.slots, id)
			return id, true
		}
		n--
	}
	return "", false
}

func (dp *DataPool) AddBooking(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.bookings = append(dp.bookings, id)
}

func (dp *DataPool) RandomBooking(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.bookings) == 0 {
		return "", false
	}
	return dp.bookings[rng.Intn(len(dp.bookings))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	View     OperationMetrics
	Navigate OperationMetrics
	Booking  OperationMetrics
	Details  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     zerolog.Logger
}

var modes = []calendar.ViewMode{calendar.ModeMonth, calendar.ModeWeek, calendar.ModeDay}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "simulate").Logger()

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Str("console", cfg.ConsoleURL).
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("view", cfg.ViewRatio).
		Float64("navigate", cfg.NavigateRatio).
		Float64("booking", cfg.BookingRatio).
		Float64("details", cfg.DetailsRatio).
		Msg("simulator starting")

	sim := &Simulator{
		config: cfg,
		pool:   NewDataPool(),
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	sim.Run()
	sim.PrintReport(os.Stdout)
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		ConsoleURL:    getEnv("SIM_CONSOLE_URL", "http://localhost:8081"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		ViewRatio:     getFloat("SIM_VIEW_RATIO", 0.5),
		NavigateRatio: getFloat("SIM_NAVIGATE_RATIO", 0.2),
		BookingRatio:  getFloat("SIM_BOOKING_RATIO", 0.2),
		DetailsRatio:  getFloat("SIM_DETAILS_RATIO", 0.1),
		Horizon:       getInt("SIM_HORIZON_DAYS", 21),
	}
	cfg.normalize()
	return cfg
}

func (c *SimConfig) normalize() {
	total := c.ViewRatio + c.NavigateRatio + c.BookingRatio + c.DetailsRatio
	if total > 0 {
		c.ViewRatio /= total
		c.NavigateRatio /= total
		c.BookingRatio /= total
		c.DetailsRatio /= total
	}
}

func validateConfig(cfg SimConfig) error {
	if _, err := url.ParseRequestURI(cfg.ConsoleURL); err != nil {
		return fmt.Errorf("SIM_CONSOLE_URL is invalid: %w", err)
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Horizon <= 0 {
		return fmt.Errorf("SIM_HORIZON_DAYS must be > 0")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info().Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	faker := gofakeit.New(uint64(rng.Int63()))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r := rng.Float64()
		switch {
		case r < s.config.ViewRatio:
			s.doView(ctx, rng)
		case r < s.config.ViewRatio+s.config.NavigateRatio:
			s.doNavigate(ctx, rng)
		case r < s.config.ViewRatio+s.config.NavigateRatio+s.config.BookingRatio:
			s.doBooking(ctx, rng, faker)
		default:
			s.doDetails(ctx, rng)
		}
	}
}

func (s *Simulator) randomDate(rng *rand.Rand) string {
	d := calendar.Today(time.Now()).AddDate(0, 0, rng.Intn(s.config.Horizon))
	return calendar.DayString(d)
}

func (s *Simulator) doView(ctx context.Context, rng *rand.Rand) {
	mode := modes[rng.Intn(len(modes))]
	path := fmt.Sprintf("/calendar/%s?date=%s", mode, s.randomDate(rng))

	var view api.ViewResponse
	status, latency, err := s.call(ctx, http.MethodGet, path, nil, &view)
	success := err == nil && status == http.StatusOK
	if success {
		s.pool.Harvest(&view)
	}
	s.metrics.View.Record(latency, success, false)
}

func (s *Simulator) doNavigate(ctx context.Context, rng *rand.Rand) {
	mode := modes[rng.Intn(len(modes))]
	dir := []string{"prev", "next", "today"}[rng.Intn(3)]
	path := fmt.Sprintf("/calendar/%s/navigate?date=%s&dir=%s", mode, s.randomDate(rng), dir)

	var nav api.NavigateResponse
	status, latency, err := s.call(ctx, http.MethodGet, path, nil, &nav)
	s.metrics.Navigate.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, faker *gofakeit.Faker) {
	slotID, ok := s.pool.TakeSlot(rng)
	if !ok {
		return
	}

	req := api.BookingRequest{
		SlotID: slotID,
		Form: booking.Form{
			PatientName:  faker.Name(),
			PatientPhone: faker.Phone(),
			VisitType:    calendar.VisitGeneral,
			Consent:      true,
		},
	}

	var resp api.BookingResponse
	status, latency, err := s.call(ctx, http.MethodPost, "/bookings", req, &resp)

	success := err == nil && status == http.StatusCreated
	conflict := err == nil && status == http.StatusConflict
	if success && resp.Appointment.BookingID != "" {
		s.pool.AddBooking(resp.Appointment.BookingID)
	}
	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doDetails(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomBooking(rng)
	if !ok {
		return
	}

	var details api.AppointmentResponse
	status, latency, err := s.call(ctx, http.MethodGet, "/appointments/"+url.PathEscape(id)+"/details", nil, &details)
	s.metrics.Details.Record(latency, err == nil && status == http.StatusOK, false)
}

// call performs one request against the console and decodes a 2xx body into out.
func (s *Simulator) call(ctx context.Context, method, path string, in, out any) (int, time.Duration, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, 0, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.ConsoleURL+path, body)
	if err != nil {
		return 0, 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, latency, err
		}
	}
	return resp.StatusCode, latency, nil
}

func (s *Simulator) PrintReport(w io.Writer) {
	fmt.Fprintf(w, "\nSIMULATION REPORT  duration=%s workers=%d\n\n", s.config.Duration, s.config.Workers)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Operation", "Total", "Success", "Conflict", "Error", "Avg", "Min", "Max", "P50", "P95"})
	table.SetAutoFormatHeaders(false)

	for _, op := range []struct {
		name string
		om   *OperationMetrics
	}{
		{"Render view", &s.metrics.View},
		{"Navigate", &s.metrics.Navigate},
		{"Booking", &s.metrics.Booking},
		{"Details", &s.metrics.Details},
	} {
		if row, ok := reportRow(op.name, op.om); ok {
			table.Append(row)
		}
	}
	table.Render()
}

func reportRow(name string, om *OperationMetrics) ([]string, bool) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return nil, false
	}

	pct := func(n int64) string {
		return fmt.Sprintf("%d (%.1f%%)", n, float64(n)/float64(total)*100)
	}
	avg, min, max, p50, p95 := om.Stats()
	ms := func(d time.Duration) string { return d.Round(time.Millisecond).String() }

	return []string{
		name,
		strconv.FormatInt(total, 10),
		pct(atomic.LoadInt64(&om.Success)),
		pct(atomic.LoadInt64(&om.Conflict)),
		pct(atomic.LoadInt64(&om.Error)),
		ms(avg), ms(min), ms(max), ms(p50), ms(p95),
	}, true
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
