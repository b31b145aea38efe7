// Package main provides the entrypoint for the snapshot worker. It records a
// combined reading for every tracked location on a schedule and, when a
// subscription is configured, on Pub/Sub trigger messages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/api/middleware"
	"github.com/aqidash/aqidash/internal/api/models"
	"github.com/aqidash/aqidash/internal/api/response"
	"github.com/aqidash/aqidash/internal/app"
	"github.com/aqidash/aqidash/internal/config"
	"github.com/aqidash/aqidash/internal/telemetry"
	"github.com/aqidash/aqidash/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "aqidash-worker"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log = log.Level(cfg.Level())

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Int("tracked_locations", len(cfg.Worker.TrackedLocations)).
		Msg("starting snapshot worker")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("worker exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		return err
	}

	providers, err := app.NewProviders(cfg, log, providerMetrics)
	if err != nil {
		return err
	}

	hist, err := app.OpenHistory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer hist.Close()
	if !hist.Persistent() {
		log.Warn().Msg("DATABASE_URL not set; snapshots are kept in memory only")
	}

	job := worker.NewSnapshotJob(worker.SnapshotJobConfig{
		Locations:   cfg.Worker.TrackedLocations,
		Concurrency: cfg.Worker.Concurrency,
		Timeout:     2 * cfg.Providers.Timeout,
		Geocoder:    providers.Geocoder,
		Dashboard:   providers.Dashboard,
		History:     hist.Service,
		Logger:      log,
	})

	scheduler := worker.NewScheduler(job, cfg.Worker.SnapshotInterval, log)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	errCh := make(chan error, 2)

	if cfg.Worker.PubSubProjectID != "" {
		handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.Worker.PubSubProjectID,
			SubscriptionName: cfg.Worker.PubSubSubscription,
			SnapshotJob:      job,
			Logger:           log,
		})
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := handler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := handler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      newHealthRouter(job, scheduler, hist, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("worker stopped")
	return nil
}

// newHealthRouter exposes liveness and job statistics for the platform.
func newHealthRouter(job *worker.SnapshotJob, scheduler *worker.Scheduler, hist *app.History, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := models.HealthStatusOK
		if len(job.Locations()) > 0 && !scheduler.Running() {
			status = models.HealthStatusDegraded
		}
		response.JSON(w, r, http.StatusOK, models.Health{
			Status: status,
			Time:   models.Timestamp(time.Now()),
			Details: map[string]any{
				"version":    Version,
				"persistent": hist.Persistent(),
			},
		})
	})

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		m := job.GetMetrics()
		response.JSON(w, r, http.StatusOK, map[string]any{
			"totalRuns":         m.TotalRuns,
			"successfulSaves":   m.SuccessfulSaves,
			"failedSaves":       m.FailedSaves,
			"lastRunAt":         m.LastRunAt,
			"lastRunDurationMs": m.LastRunDuration.Milliseconds(),
		})
	})

	r.Get("/upstream", func(w http.ResponseWriter, r *http.Request) {
		if err := job.CheckUpstream(r.Context()); err != nil {
			response.ServiceUnavailable(w, r, err.Error())
			return
		}
		response.JSON(w, r, http.StatusOK, map[string]string{"status": string(models.HealthStatusOK)})
	})

	return r
}
