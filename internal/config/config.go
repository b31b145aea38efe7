// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // DISPLAY_TIMEZONE must resolve in minimal images

	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/airquality"
)

// Config is the complete service configuration.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"development" validate:"oneof=local development test staging production"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`

	Server    ServerConfig
	Providers ProviderConfig
	Database  DatabaseConfig
	Telemetry TelemetryConfig
	Worker    WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       string `envconfig:"APP_PORT" default:"8080" validate:"numeric"`
	RequireTLS bool   `envconfig:"REQUIRE_TLS" default:"false"`

	ReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
}

// ProviderConfig holds upstream API credentials and client behavior.
type ProviderConfig struct {
	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	AQICNToken        string `envconfig:"AQICN_TOKEN" validate:"required"`

	OpenWeatherBaseURL string `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5" validate:"url"`
	OpenWeatherGeoURL  string `envconfig:"OPENWEATHER_GEO_URL" default:"https://api.openweathermap.org/geo/1.0" validate:"url"`
	WAQIBaseURL        string `envconfig:"WAQI_BASE_URL" default:"https://api.waqi.info" validate:"url"`

	// Timeout bounds each upstream call.
	Timeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`

	// MaxRetries is the number of extra attempts per upstream call.
	MaxRetries uint64 `envconfig:"UPSTREAM_MAX_RETRIES" default:"0" validate:"lte=5"`

	// DisplayTimezone is the IANA zone hourly labels and sun times are
	// rendered in.
	DisplayTimezone string `envconfig:"DISPLAY_TIMEZONE" default:"Local"`
}

// DatabaseConfig holds PostgreSQL settings. History is kept in memory when
// URL is empty.
type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL" validate:"omitempty,url"`
	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"10" validate:"min=1"`
	MinConns        int           `envconfig:"DB_MIN_CONNS" default:"2" validate:"min=0"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
}

// WorkerConfig holds snapshot worker settings.
type WorkerConfig struct {
	TrackedLocations Locations     `envconfig:"TRACKED_LOCATIONS"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"30m" validate:"gte=1m"`
	Concurrency      int           `envconfig:"SNAPSHOT_CONCURRENCY" default:"4" validate:"min=1,max=32"`

	PubSubProjectID    string `envconfig:"PUBSUB_PROJECT_ID"`
	PubSubSubscription string `envconfig:"PUBSUB_SUBSCRIPTION" validate:"required_with=PubSubProjectID"`
}

// Level returns the configured zerolog level.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// Location returns the display time zone.
func (p ProviderConfig) Location() (*time.Location, error) {
	return time.LoadLocation(p.DisplayTimezone)
}

// Locations is a list of coordinates decoded from "lat:lon,lat:lon".
type Locations []airquality.Coordinates

// Decode implements envconfig.Decoder.
func (l *Locations) Decode(value string) error {
	parsed, err := ParseLocations(value)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLocations parses a comma-separated list of "lat:lon" pairs.
func ParseLocations(value string) (Locations, error) {
	var out Locations
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		latStr, lonStr, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("location %q: expected lat:lon", item)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("location %q: invalid latitude", item)
		}

		lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("location %q: invalid longitude", item)
		}

		out = append(out, airquality.Coordinates{Lat: lat, Lon: lon})
	}
	return out, nil
}
