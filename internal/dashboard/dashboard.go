// Package dashboard assembles the combined air-quality, weather and hourly
// forecast reading served to dashboard clients.
package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aqidash/aqidash/internal/airquality"
	"github.com/aqidash/aqidash/internal/weather"
)

// ErrWeatherUnavailable is returned when current weather could not be fetched.
var ErrWeatherUnavailable = errors.New("weather data unavailable")

// DefaultTimeout bounds a combined reading when ServiceConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// CombinedReading is the assembled dashboard payload.
type CombinedReading struct {
	AirQuality *airquality.Reading
	Weather    *weather.Reading

	// Hourly is never nil; it is empty when the forecast was unavailable.
	Hourly []airquality.HourlyPoint
}

// AirQualityFetcher returns the current reading, trying fallbacks internally.
type AirQualityFetcher interface {
	Fetch(ctx context.Context, coords airquality.Coordinates) (*airquality.Reading, error)
}

// WeatherFetcher returns normalized current weather.
type WeatherFetcher interface {
	GetCurrentWeather(ctx context.Context, lat, lon float64) (*weather.Reading, error)
}

// HourlyFetcher returns the normalized hourly index forecast.
type HourlyFetcher interface {
	FetchHourly(ctx context.Context, coords airquality.Coordinates) ([]airquality.HourlyPoint, error)
}

// ServiceConfig holds configuration for the dashboard service.
type ServiceConfig struct {
	AirQuality AirQualityFetcher
	Weather    WeatherFetcher
	Hourly     HourlyFetcher

	// Timeout bounds all three strands. They are detached from the caller's
	// cancellation, so this is what stops them.
	// Default: DefaultTimeout
	Timeout time.Duration

	// Logger for strand failures.
	Logger zerolog.Logger
}

// Service runs the three upstream strands and joins their results.
type Service struct {
	airQuality AirQualityFetcher
	weather    WeatherFetcher
	hourly     HourlyFetcher
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewService creates a new dashboard service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Service{
		airQuality: cfg.AirQuality,
		weather:    cfg.Weather,
		hourly:     cfg.Hourly,
		timeout:    timeout,
		logger:     cfg.Logger,
	}
}

// GetCombinedReading fetches air quality, weather and the hourly forecast
// concurrently and waits for all three. An air-quality failure is reported
// as airquality.ErrAllSourcesFailed and takes precedence over a weather
// failure. Hourly failures degrade to an empty series.
//
// Upstream calls run to completion even if ctx is cancelled; only the
// service timeout stops them. Context values such as the trace span are kept.
func (s *Service) GetCombinedReading(ctx context.Context, coords airquality.Coordinates) (*CombinedReading, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	log := s.logger.With().Str("coords", coords.String()).Logger()

	var (
		aq     *airquality.Reading
		aqErr  error
		wx     *weather.Reading
		wxErr  error
		hourly []airquality.HourlyPoint
		g      errgroup.Group
	)

	// Strands record their own errors; none returns one to the group so a
	// failure never cancels or masks a sibling.
	g.Go(func() error {
		aq, aqErr = s.airQuality.Fetch(ctx, coords)
		return nil
	})

	g.Go(func() error {
		wx, wxErr = s.weather.GetCurrentWeather(ctx, coords.Lat, coords.Lon)
		return nil
	})

	g.Go(func() error {
		points, err := s.hourly.FetchHourly(ctx, coords)
		if err != nil {
			log.Warn().Err(err).Msg("hourly forecast unavailable, continuing without it")
			points = nil
		}
		if points == nil {
			points = []airquality.HourlyPoint{}
		}
		hourly = points
		return nil
	})

	_ = g.Wait()

	if aqErr != nil || aq == nil {
		log.Error().Err(aqErr).Msg("air quality unavailable")
		return nil, airquality.ErrAllSourcesFailed
	}

	if wxErr != nil || wx == nil {
		log.Error().Err(wxErr).Msg("weather unavailable")
		return nil, ErrWeatherUnavailable
	}

	log.Debug().
		Int("aqi", aq.Index).
		Str("source", aq.Source).
		Int("hourly_points", len(hourly)).
		Dur("duration", time.Since(start)).
		Msg("combined reading assembled")

	return &CombinedReading{
		AirQuality: aq,
		Weather:    wx,
		Hourly:     hourly,
	}, nil
}
