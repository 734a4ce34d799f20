package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/clinic-calendar-console/internal/api"
	"github.com/hackgods/clinic-calendar-console/internal/app"
	"github.com/hackgods/clinic-calendar-console/internal/config"
	"github.com/hackgods/clinic-calendar-console/internal/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg, "console-server")
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("scheduling_api", cfg.SchedulingAPIURL).
		Str("version", version).
		Msg("console-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(a.RouterConfig(version)),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.SchedulingAPITimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down console-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
