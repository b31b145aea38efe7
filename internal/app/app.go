// Package app assembles the provider clients and services shared by the API
// server and the snapshot worker.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/airquality"
	owmair "github.com/aqidash/aqidash/internal/airquality/openweathermap"
	"github.com/aqidash/aqidash/internal/airquality/waqi"
	"github.com/aqidash/aqidash/internal/config"
	"github.com/aqidash/aqidash/internal/dashboard"
	"github.com/aqidash/aqidash/internal/database"
	"github.com/aqidash/aqidash/internal/geocode"
	owmgeo "github.com/aqidash/aqidash/internal/geocode/openweathermap"
	"github.com/aqidash/aqidash/internal/history"
	"github.com/aqidash/aqidash/internal/provider/resilience"
	owmweather "github.com/aqidash/aqidash/internal/weather/openweathermap"
)

// Providers holds the upstream-backed services.
type Providers struct {
	Registry  *resilience.Registry
	Fallback  *airquality.Fallback
	Dashboard *dashboard.Service
	Geocoder  *geocode.Service
}

// NewProviders builds one resilient client per upstream, the air-quality
// fallback chain (OpenWeatherMap first, WAQI second) and the dashboard and
// geocoding services on top of them. metrics may be nil.
func NewProviders(cfg *config.Config, logger zerolog.Logger, metrics airquality.RequestRecorder) (*Providers, error) {
	loc, err := cfg.Providers.Location()
	if err != nil {
		return nil, fmt.Errorf("display timezone %q: %w", cfg.Providers.DisplayTimezone, err)
	}

	registry := resilience.NewRegistry()
	newHTTPClient := func(name string) *resilience.Client {
		cc := resilience.DefaultClientConfig(name)
		cc.Timeout = cfg.Providers.Timeout
		cc.MaxRetries = cfg.Providers.MaxRetries
		cc.Registry = registry
		cc.CircuitBreaker.OnStateChange = resilience.LogStateChanges(logger)
		return resilience.NewClient(cc)
	}

	primary := owmair.NewClient(owmair.ClientConfig{
		APIKey:     cfg.Providers.OpenWeatherAPIKey,
		BaseURL:    cfg.Providers.OpenWeatherBaseURL,
		HTTPClient: newHTTPClient(owmair.ProviderName),
		Location:   loc,
		Logger:     logger,
	})

	secondary := waqi.NewClient(waqi.ClientConfig{
		Token:      cfg.Providers.AQICNToken,
		BaseURL:    cfg.Providers.WAQIBaseURL,
		HTTPClient: newHTTPClient(waqi.ProviderName),
		Logger:     logger,
	})

	weatherClient := owmweather.NewClient(owmweather.ClientConfig{
		APIKey:     cfg.Providers.OpenWeatherAPIKey,
		BaseURL:    cfg.Providers.OpenWeatherBaseURL,
		HTTPClient: newHTTPClient(owmweather.ProviderName),
		Location:   loc,
		Logger:     logger,
	})

	geoClient := owmgeo.NewClient(owmgeo.ClientConfig{
		APIKey:     cfg.Providers.OpenWeatherAPIKey,
		BaseURL:    cfg.Providers.OpenWeatherGeoURL,
		HTTPClient: newHTTPClient(owmgeo.ProviderName),
		Logger:     logger,
	})

	sources := []airquality.Source{primary, secondary}
	fallback := airquality.NewFallback(airquality.FallbackConfig{
		Sources: sources,
		Logger:  logger,
		Metrics: metrics,
	})

	return &Providers{
		Registry: registry,
		Fallback: fallback,
		Dashboard: dashboard.NewService(dashboard.ServiceConfig{
			AirQuality: fallback,
			Weather:    weatherClient,
			Hourly:     primary,
			// The air-quality strand may call every source in turn.
			Timeout: time.Duration(len(sources)) * cfg.Providers.Timeout,
			Logger:  logger,
		}),
		Geocoder: geocode.NewService(geocode.ServiceConfig{
			Provider: geoClient,
			Logger:   logger,
		}),
	}, nil
}

// History is the reading history store and its lifecycle hooks.
type History struct {
	Service *history.Service

	// Ping checks the backing store. Nil for the in-memory store.
	Ping func(ctx context.Context) error

	pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (h *History) Close() {
	if h.pool != nil {
		h.pool.Close()
	}
}

// Persistent reports whether history survives restarts.
func (h *History) Persistent() bool {
	return h.pool != nil
}

// OpenHistory connects to PostgreSQL and ensures the schema when a database
// URL is configured, otherwise it falls back to an in-memory store.
func OpenHistory(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*History, error) {
	if cfg.Database.URL == "" {
		return &History{
			Service: history.NewService(history.ServiceConfig{
				Repository: history.NewInMemoryRepository(),
				Logger:     logger,
			}),
		}, nil
	}

	pool, err := database.Connect(ctx, database.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		ConnMaxLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect history database: %w", err)
	}

	repo := history.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure history schema: %w", err)
	}

	return &History{
		Service: history.NewService(history.ServiceConfig{
			Repository: repo,
			Logger:     logger,
		}),
		Ping: pool.Ping,
		pool: pool,
	}, nil
}
