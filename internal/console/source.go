package console

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/metrics"
)

// Source is the read side of the scheduling API, usually behind a viewcache.CachedSource.
type Source interface {
	Appointments(ctx context.Context, start, end time.Time) ([]calendar.Appointment, error)
	Slots(ctx context.Context, start, end time.Time) ([]calendar.Slot, error)
	MonthAggregate(ctx context.Context, month time.Time) ([]calendar.DayAggregate, error)
}

// Invalidator drops cached fetch results after a booking.
type Invalidator interface {
	Invalidate(ctx context.Context, resources ...calendar.Resource) error
}

// setter applies a successful fetch to the inputs under the given version.
type setter func(in *calendar.Inputs, version uint64)

func fetch(ctx context.Context, src Source, r calendar.DateRange, res calendar.Resource) (setter, error) {
	switch res {
	case calendar.ResourceSlots:
		slots, err := src.Slots(ctx, r.Start, r.End)
		if err != nil {
			return nil, err
		}
		return func(in *calendar.Inputs, v uint64) { in.Slots = calendar.Ready(slots, v) }, nil
	case calendar.ResourceAppointments:
		appts, err := src.Appointments(ctx, r.Start, r.End)
		if err != nil {
			return nil, err
		}
		return func(in *calendar.Inputs, v uint64) { in.Appointments = calendar.Ready(appts, v) }, nil
	case calendar.ResourceMonth:
		aggs, err := src.MonthAggregate(ctx, r.Start)
		if err != nil {
			return nil, err
		}
		return func(in *calendar.Inputs, v uint64) { in.Month = calendar.Ready(aggs, v) }, nil
	default:
		return nil, fmt.Errorf("unknown resource %q", res)
	}
}

// LoadView fetches what mode needs for the range around anchor and renders it. The fetches run
// concurrently and independently; one failing does not cancel the others.
func LoadView(ctx context.Context, src Source, b *calendar.Builder, mode calendar.ViewMode, anchor time.Time, m *metrics.Metrics) calendar.View {
	r := calendar.RangeFor(mode, anchor)
	in := calendar.LoadingInputs()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, res := range calendar.Required(mode) {
		g.Go(func() error {
			set, err := fetch(ctx, src, r, res)
			m.ObserveFetch(string(res), err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				in.Fail(res, err)
				return nil
			}
			set(&in, b.NextVersion())
			return nil
		})
	}
	_ = g.Wait()

	return b.Build(mode, anchor, in)
}
