package viewcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-calendar-console/internal/calendar"
)

// Upstream is the subset of the scheduling API the calendar reads from.
type Upstream interface {
	Appointments(ctx context.Context, start, end time.Time) ([]calendar.Appointment, error)
	Slots(ctx context.Context, start, end time.Time) ([]calendar.Slot, error)
	MonthAggregate(ctx context.Context, month time.Time) ([]calendar.DayAggregate, error)
}

// CachedSource is a read-through cache in front of Upstream. Failed fetches are never cached,
// and a broken store only costs a round trip to the upstream.
type CachedSource struct {
	upstream Upstream
	store    Store
	ttl      time.Duration
	ttls     map[calendar.Resource]time.Duration
	log      zerolog.Logger
}

type Option func(*CachedSource)

// WithTTL overrides the entry lifetime of one resource family.
func WithTTL(res calendar.Resource, ttl time.Duration) Option {
	return func(c *CachedSource) { c.ttls[res] = ttl }
}

func NewCachedSource(upstream Upstream, store Store, ttl time.Duration, log zerolog.Logger, opts ...Option) *CachedSource {
	c := &CachedSource{upstream: upstream, store: store, ttl: ttl, ttls: map[calendar.Resource]time.Duration{}, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL reports the entry lifetime used for res.
func (c *CachedSource) TTL(res calendar.Resource) time.Duration {
	if ttl, ok := c.ttls[res]; ok {
		return ttl
	}
	return c.ttl
}

type freshKey struct{}

// Fresh marks ctx so reads through a CachedSource skip the stored entry, go to the upstream and
// store the new result in its place.
func Fresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

func isFresh(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshKey{}).(bool)
	return fresh
}

func (c *CachedSource) Appointments(ctx context.Context, start, end time.Time) ([]calendar.Appointment, error) {
	key := Key(calendar.ResourceAppointments, calendar.DayString(start), calendar.DayString(end))
	return readThrough(ctx, c, calendar.ResourceAppointments, key, func() ([]calendar.Appointment, error) {
		return c.upstream.Appointments(ctx, start, end)
	})
}

func (c *CachedSource) Slots(ctx context.Context, start, end time.Time) ([]calendar.Slot, error) {
	key := Key(calendar.ResourceSlots, calendar.DayString(start), calendar.DayString(end))
	return readThrough(ctx, c, calendar.ResourceSlots, key, func() ([]calendar.Slot, error) {
		return c.upstream.Slots(ctx, start, end)
	})
}

func (c *CachedSource) MonthAggregate(ctx context.Context, month time.Time) ([]calendar.DayAggregate, error) {
	key := Key(calendar.ResourceMonth, calendar.MonthString(month))
	return readThrough(ctx, c, calendar.ResourceMonth, key, func() ([]calendar.DayAggregate, error) {
		return c.upstream.MonthAggregate(ctx, month)
	})
}

// Invalidate drops the given families from the underlying store.
func (c *CachedSource) Invalidate(ctx context.Context, resources ...calendar.Resource) error {
	return Invalidate(ctx, c.store, resources...)
}

func readThrough[T any](ctx context.Context, c *CachedSource, res calendar.Resource, key string, fetch func() (T, error)) (T, error) {
	if !isFresh(ctx) {
		if v, ok := lookup[T](ctx, c, key); ok {
			return v, nil
		}
	}

	v, err := fetch()
	if err != nil {
		return v, err
	}

	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return v, nil
	}
	if err := c.store.Set(ctx, key, raw, c.TTL(res)); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return v, nil
}

func lookup[T any](ctx context.Context, c *CachedSource, key string) (T, bool) {
	var v T
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		var zero T
		return zero, false
	}
	return v, true
}
