package console

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-calendar-console/internal/booking"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/metrics"
	"github.com/hackgods/clinic-calendar-console/internal/viewcache"
)

// Booker is the booking side used by a session.
type Booker interface {
	BookSlot(ctx context.Context, slot calendar.Slot, form booking.Form) (*booking.Result, error)
	BookAdmin(ctx context.Context, form booking.Form) (*booking.Result, error)
}

type Options struct {
	Mode         calendar.ViewMode
	Anchor       time.Time     // zero means today
	PollInterval time.Duration // appointment refresh period for Watch
	OnChange     func(calendar.View)
}

// Session is one open calendar: a mode, an anchor, and the fetch states for the range on screen.
// Every navigation bumps a generation counter; fetch results carrying an older generation are
// discarded instead of being applied to the new range.
type Session struct {
	src         Source
	builder     *calendar.Builder
	booker      Booker
	invalidator Invalidator
	metrics     *metrics.Metrics
	log         zerolog.Logger

	pollInterval time.Duration
	onChange     func(calendar.View)

	mu     sync.Mutex
	mode   calendar.ViewMode
	anchor time.Time
	gen    uint64
	inputs calendar.Inputs
	cancel context.CancelFunc
	closed bool
}

func NewSession(src Source, builder *calendar.Builder, booker Booker, invalidator Invalidator, m *metrics.Metrics, opts Options, log zerolog.Logger) *Session {
	if opts.Mode == "" {
		opts.Mode = calendar.ModeWeek
	}
	if opts.Anchor.IsZero() {
		opts.Anchor = calendar.Today(builder.Now())
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	return &Session{
		src:          src,
		builder:      builder,
		booker:       booker,
		invalidator:  invalidator,
		metrics:      m,
		log:          log.With().Str("component", "session").Logger(),
		pollInterval: opts.PollInterval,
		onChange:     opts.OnChange,
		mode:         opts.Mode,
		anchor:       calendar.StartOfDay(opts.Anchor),
		inputs:       calendar.LoadingInputs(),
	}
}

// View renders the current state. It is a loading placeholder while any required fetch is out.
func (s *Session) View() calendar.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Build(s.mode, s.anchor, s.inputs)
}

func (s *Session) Mode() calendar.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Anchor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchor
}

func (s *Session) SetMode(ctx context.Context, mode calendar.ViewMode) error {
	return s.navigate(ctx, func() { s.mode = mode })
}

func (s *Session) Previous(ctx context.Context) error {
	return s.navigate(ctx, func() { s.anchor = calendar.Previous(s.mode, s.anchor) })
}

func (s *Session) Next(ctx context.Context) error {
	return s.navigate(ctx, func() { s.anchor = calendar.Next(s.mode, s.anchor) })
}

func (s *Session) Today(ctx context.Context) error {
	return s.navigate(ctx, func() { s.anchor = calendar.Today(s.builder.Now()) })
}

func (s *Session) GoTo(ctx context.Context, date time.Time) error {
	return s.navigate(ctx, func() { s.anchor = calendar.StartOfDay(date) })
}

// SelectDay handles a click on a month cell: in-month days open the day view, others are ignored.
func (s *Session) SelectDay(ctx context.Context, cell calendar.MonthCell) (bool, error) {
	if !cell.Clickable() {
		return false, nil
	}
	return true, s.navigate(ctx, func() {
		s.mode = calendar.ModeDay
		s.anchor = calendar.StartOfDay(cell.Date)
	})
}

func (s *Session) navigate(ctx context.Context, change func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	change()
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.inputs = calendar.LoadingInputs()
	s.mu.Unlock()

	s.notify()
	return s.Refresh(ctx)
}

type fetchPlan struct {
	gen       uint64
	rng       calendar.DateRange
	resources []calendar.Resource
	ctx       context.Context
}

func (s *Session) plan(ctx context.Context, poll bool) (fetchPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fetchPlan{}, false
	}

	p := fetchPlan{rng: calendar.RangeFor(s.mode, s.anchor)}
	if poll {
		p.gen = s.gen
		p.resources = []calendar.Resource{pollResource(s.mode)}
		p.ctx = viewcache.Fresh(ctx)
		return p, true
	}

	// A refresh supersedes any refresh still in flight for the same range.
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	p.gen = s.gen
	p.resources = calendar.Required(s.mode)
	p.ctx = fctx
	return p, true
}

// pollResource is what changes on its own while the calendar is open: the appointment list in
// week and day view, the aggregate in month view.
func pollResource(mode calendar.ViewMode) calendar.Resource {
	if mode == calendar.ModeMonth {
		return calendar.ResourceMonth
	}
	return calendar.ResourceAppointments
}

// Refresh refetches every resource the current mode renders from. It returns the first fetch
// error, which is also reflected in the view.
func (s *Session) Refresh(ctx context.Context) error {
	return s.run(ctx, false)
}

// Poll refetches the resource that changes behind the console's back, past any cached copy. A
// failed poll keeps the data already on screen.
func (s *Session) Poll(ctx context.Context) error {
	return s.run(ctx, true)
}

func (s *Session) run(ctx context.Context, poll bool) error {
	p, ok := s.plan(ctx, poll)
	if !ok {
		return ErrSessionClosed
	}

	g := new(errgroup.Group)
	for _, res := range p.resources {
		g.Go(func() error {
			set, err := fetch(p.ctx, s.src, p.rng, res)
			s.metrics.ObserveFetch(string(res), err)
			s.apply(p.gen, res, poll, set, err)
			return err
		})
	}
	return g.Wait()
}

func (s *Session) apply(gen uint64, res calendar.Resource, poll bool, set setter, err error) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		s.metrics.ObserveStale(string(res))
		s.log.Debug().Str("resource", string(res)).Uint64("generation", gen).Msg("dropping stale fetch result")
		return
	}

	if err != nil {
		if status, _ := s.inputs.Status(res); poll && status == calendar.FetchReady {
			s.mu.Unlock()
			s.log.Warn().Err(err).Str("resource", string(res)).Msg("poll failed, keeping current data")
			return
		}
		s.log.Error().Err(err).Str("resource", string(res)).Msg(calendar.GenericLoadError)
		s.inputs.Fail(res, err)
	} else {
		set(&s.inputs, s.builder.NextVersion())
	}
	s.mu.Unlock()

	s.notify()
}

func (s *Session) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.View())
}

// Watch polls until ctx is done or the session is closed.
func (s *Session) Watch(ctx context.Context) error {
	if s.isClosed() {
		return nil
	}
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.pollInterval).Msg("watching appointments")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Poll(ctx); err != nil {
				if errors.Is(err, ErrSessionClosed) {
					return nil
				}
				s.log.Warn().Err(err).Msg("poll failed")
			}
		}
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close discards every in-flight fetch. Later results are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Book submits a slot picked from the grid, then invalidates and refetches everything a booking
// can change. On error the caller keeps its form.
func (s *Session) Book(ctx context.Context, slot calendar.Slot, form booking.Form) (*booking.Result, error) {
	res, err := s.booker.BookSlot(ctx, slot, form)
	if err != nil {
		return nil, err
	}
	s.afterBooking(ctx, res)
	return res, nil
}

func (s *Session) BookAdmin(ctx context.Context, form booking.Form) (*booking.Result, error) {
	res, err := s.booker.BookAdmin(ctx, form)
	if err != nil {
		return nil, err
	}
	s.afterBooking(ctx, res)
	return res, nil
}

func (s *Session) afterBooking(ctx context.Context, res *booking.Result) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, res.Invalidate...); err != nil {
			s.log.Warn().Err(err).Msg("cache invalidation failed")
		}
	}
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.log.Warn().Err(err).Msg("refetch after booking failed")
	}
}
