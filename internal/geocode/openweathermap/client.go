// Package openweathermap implements geocode.Provider with the OpenWeatherMap
// geocoding API.
package openweathermap

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/geocode"
	"github.com/aqidash/aqidash/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "openweathermap-geo"

	// DefaultBaseURL is the OpenWeatherMap geocoding API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/geo/1.0"
)

// ClientConfig holds configuration for the geocoding client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the transport requests go through (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap geocoding client.
type Client struct {
	apiKey string
	rest   *resty.Client
	logger zerolog.Logger
}

// NewClient creates a new geocoding client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	transport := cfg.HTTPClient
	if transport == nil {
		transport = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	// Timeouts and the circuit breaker live in the resilience transport.
	rest := resty.NewWithClient(&http.Client{Transport: transport}).
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{cfg.Logger})

	return &Client{
		apiKey: cfg.APIKey,
		rest:   rest,
		logger: cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Direct looks up places by free-text name.
func (c *Client) Direct(ctx context.Context, query string, limit int) ([]geocode.Place, error) {
	return c.lookup(ctx, "/direct", map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
	})
}

// Reverse looks up places near the coordinates.
func (c *Client) Reverse(ctx context.Context, lat, lon float64, limit int) ([]geocode.Place, error) {
	return c.lookup(ctx, "/reverse", map[string]string{
		"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
		"lon":   strconv.FormatFloat(lon, 'f', -1, 64),
		"limit": strconv.Itoa(limit),
	})
}

func (c *Client) lookup(ctx context.Context, path string, params map[string]string) ([]geocode.Place, error) {
	var result []placeResponse

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("appid", c.apiKey).
		ForceContentType("application/json").
		SetResult(&result).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("geocode %s: %w", path, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("geocode %s: unexpected status %d", path, resp.StatusCode())
	}

	places := make([]geocode.Place, 0, len(result))
	for _, p := range result {
		places = append(places, geocode.Place{
			Name:    p.Name,
			Country: p.Country,
			Lat:     p.Lat,
			Lon:     p.Lon,
		})
	}

	c.logger.Debug().
		Str("path", path).
		Int("results", len(places)).
		Dur("duration", resp.Time()).
		Msg("geocode lookup")

	return places, nil
}

type placeResponse struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// restyLogger routes resty's internal messages into zerolog.
type restyLogger struct {
	zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.Logger.Error().Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.Logger.Warn().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.Logger.Debug().Msgf(format, v...)
}
