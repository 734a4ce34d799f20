package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hackgods/clinic-calendar-console/internal/config"
)

// New builds the process logger: stdout, plus a rotated file when LOG_FILE is set.
func New(cfg config.Config, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var stdout io.Writer = os.Stdout
	if useConsole(cfg) {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{stdout}
	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(cfg.LogLevel)).
		With().
		Timestamp().
		Str("service", service).
		Str("env", cfg.Env).
		Logger()
}

func useConsole(cfg config.Config) bool {
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		return false
	case "console", "text":
		return true
	}
	return cfg.IsDev()
}

func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
