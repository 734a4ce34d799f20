package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Env             string        // dev, prod
	HTTPPort        string        // default 8081
	ShutdownTimeout time.Duration // graceful shutdown timeout

	SchedulingAPIURL     string        // required, base url of the scheduling REST API
	SchedulingAPITimeout time.Duration // per request

	AppointmentPollInterval time.Duration // calendar appointment refresh
	TranscriptPollInterval  time.Duration // live transcript refresh

	ClinicOpenHour int    // first row of the week/day grid
	ClinicHours    int    // hourly rows, each split in two half hours
	ClinicRegion   string // default phone region

	CacheTTL       time.Duration
	CacheSize      int
	IndexCacheSize int

	RedisAddr      string // host:port, empty disables redis
	RedisUsername  string // redis username
	RedisPassword  string // redis password
	RedisDB        int    // logical database index
	RedisTLS       bool   // rediss:// or REDIS_TLS=true
	SubmitGuardTTL time.Duration

	PostgresDSN string // optional, enables the booking audit log

	LogLevel  string
	LogFormat string // json, console
	LogFile   string // optional rotated log file
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		SchedulingAPIURL:     os.Getenv("SCHEDULING_API_URL"),
		SchedulingAPITimeout: getDuration("SCHEDULING_API_TIMEOUT", 10*time.Second),

		AppointmentPollInterval: getDuration("APPOINTMENT_POLL_INTERVAL", 30*time.Second),
		TranscriptPollInterval:  getDuration("TRANSCRIPT_POLL_INTERVAL", 2*time.Second),

		ClinicOpenHour: getInt("CLINIC_OPEN_HOUR", 9),
		ClinicHours:    getInt("CLINIC_HOURS", 9),
		ClinicRegion:   getEnv("CLINIC_REGION", "CA"),

		CacheTTL:       getDuration("CACHE_TTL", 5*time.Minute),
		CacheSize:      getInt("CACHE_SIZE", 256),
		IndexCacheSize: getInt("INDEX_CACHE_SIZE", 16),

		SubmitGuardTTL: getDuration("SUBMIT_GUARD_TTL", 10*time.Second),

		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", ""),
		LogFile:   os.Getenv("LOG_FILE"),
	}

	if cfg.SchedulingAPIURL == "" {
		return Config{}, errors.New("SCHEDULING_API_URL is required")
	}
	if cfg.ClinicOpenHour < 0 || cfg.ClinicHours <= 0 || cfg.ClinicOpenHour+cfg.ClinicHours > 24 {
		return Config{}, fmt.Errorf("clinic hours %d+%d do not fit in a day", cfg.ClinicOpenHour, cfg.ClinicHours)
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		cfg.RedisAddr = opts.Addr
		cfg.RedisUsername = opts.Username
		cfg.RedisPassword = opts.Password
		cfg.RedisDB = opts.DB
		cfg.RedisTLS = opts.TLSConfig != nil
	} else {
		cfg.RedisAddr = getEnv("REDIS_ADDR", "")
		cfg.RedisUsername = getEnv("REDIS_USERNAME", "")
		cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
		cfg.RedisDB = getInt("REDIS_DB", 0)
		cfg.RedisTLS = getEnv("REDIS_TLS", "") == "true"
	}

	return cfg, nil
}

func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "development" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid integer for %s=%q, using default %d\n", key, v, def)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	}
	return def
}
