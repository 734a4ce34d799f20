package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-calendar-console/internal/api"
	"github.com/hackgods/clinic-calendar-console/internal/audit"
	"github.com/hackgods/clinic-calendar-console/internal/booking"
	"github.com/hackgods/clinic-calendar-console/internal/calendar"
	"github.com/hackgods/clinic-calendar-console/internal/config"
	"github.com/hackgods/clinic-calendar-console/internal/console"
	"github.com/hackgods/clinic-calendar-console/internal/db"
	"github.com/hackgods/clinic-calendar-console/internal/metrics"
	redisclient "github.com/hackgods/clinic-calendar-console/internal/redis"
	"github.com/hackgods/clinic-calendar-console/internal/schedapi"
	"github.com/hackgods/clinic-calendar-console/internal/viewcache"
)

// App holds the wired calendar engine shared by every command.
type App struct {
	Config      config.Config
	Log         zerolog.Logger
	API         *schedapi.Client
	Source      *viewcache.CachedSource
	Builder     *calendar.Builder
	Coordinator *booking.Coordinator
	Metrics     *metrics.Metrics
	Checks      []api.DependencyCheck

	closers []func()
}

// New connects the optional backends (Redis, Postgres) and builds the engine. Redis and Postgres
// are only used when configured; without them the cache and submit guard stay in process and the
// audit log is skipped.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Metrics: metrics.New()}

	client, err := schedapi.NewClient(cfg.SchedulingAPIURL, cfg.SchedulingAPITimeout)
	if err != nil {
		return nil, err
	}
	a.API = client

	var (
		store  viewcache.Store
		locker redisclient.Locker
	)
	redisOpts := redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TLS:      cfg.RedisTLS,
	}
	if redisOpts.Enabled() {
		rdb, err := redisclient.NewRedisClient(ctx, redisOpts)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis connection error: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing redis")
			}
		})
		a.Checks = append(a.Checks, api.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		store = viewcache.NewRedisStore(rdb)
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.SubmitGuardTTL)
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	} else {
		mem, err := viewcache.NewMemoryStore(cfg.CacheSize, nil)
		if err != nil {
			return nil, err
		}
		store = mem
		locker = redisclient.NewLocalSlotLocker()
	}

	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.PostgresDSN != "" {
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres connection error: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		repo := audit.NewPgRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		recorder = repo
		a.Checks = append(a.Checks, api.DependencyCheck{Name: "postgres", Ping: pool.Ping})
		log.Info().Msg("connected to Postgres, booking audit enabled")
	}

	liveTTL := pollTTL(cfg.CacheTTL, cfg.AppointmentPollInterval)
	a.Source = viewcache.NewCachedSource(client, store, cfg.CacheTTL, log,
		viewcache.WithTTL(calendar.ResourceAppointments, liveTTL),
		viewcache.WithTTL(calendar.ResourceMonth, liveTTL),
	)
	a.Builder = calendar.NewBuilder(
		calendar.HoursAxis{OpenHour: cfg.ClinicOpenHour, Hours: cfg.ClinicHours},
		calendar.NewIndexer(cfg.IndexCacheSize),
		nil,
	)
	a.Coordinator = booking.NewCoordinator(client, locker, recorder, a.Metrics,
		booking.Config{Region: cfg.ClinicRegion, Location: time.Local}, log)

	return a, nil
}

// pollTTL caps the lifetime of the families that change upstream without this console, so a cached
// view is never older than half a poll period.
func pollTTL(cacheTTL, pollInterval time.Duration) time.Duration {
	if half := pollInterval / 2; half > 0 && (cacheTTL <= 0 || half < cacheTTL) {
		return half
	}
	return cacheTTL
}

// NewSession opens a stateful calendar on top of the shared engine.
func (a *App) NewSession(mode calendar.ViewMode, anchor time.Time, onChange func(calendar.View)) *console.Session {
	return console.NewSession(a.Source, a.Builder, a.Coordinator, a.Source, a.Metrics, console.Options{
		Mode:         mode,
		Anchor:       anchor,
		PollInterval: a.Config.AppointmentPollInterval,
		OnChange:     onChange,
	}, a.Log)
}

func (a *App) RouterConfig(version string) api.RouterConfig {
	return api.RouterConfig{
		Source:      a.Source,
		Builder:     a.Builder,
		Booker:      a.Coordinator,
		Invalidator: a.Source,
		Details:     a.API,
		Metrics:     a.Metrics,
		Checks:      a.Checks,
		Location:    time.Local,
		Log:         a.Log,
		Env:         a.Config.Env,
		Version:     version,
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
