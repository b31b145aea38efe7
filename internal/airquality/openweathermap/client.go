// Package openweathermap provides the primary air-quality source backed by the
// OpenWeatherMap air pollution API.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/airquality"
	"github.com/aqidash/aqidash/internal/provider/resilience"
)

const (
	// ProviderName identifies this air-quality provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ClientConfig holds configuration for the OpenWeatherMap air pollution client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Location is the zone hourly labels are rendered in. Defaults to time.Local.
	Location *time.Location

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap air pollution API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	location   *time.Location
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap air pollution client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		location:   loc,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchCurrent fetches the current pollution reading. The coarse 1-5 index of
// the first list entry is scaled onto the 0-500 range.
func (c *Client) FetchCurrent(ctx context.Context, coords airquality.Coordinates) (*airquality.Reading, error) {
	var resp pollutionResponse
	if err := c.get(ctx, "/air_pollution", coords, &resp); err != nil {
		return nil, err
	}

	if len(resp.List) == 0 {
		return nil, fmt.Errorf("empty pollution list: %w", airquality.ErrMalformedResponse)
	}

	entry := resp.List[0]
	if entry.Main.AQI == nil {
		return nil, fmt.Errorf("missing aqi: %w", airquality.ErrMalformedResponse)
	}

	index, err := airquality.ParseCoarseIndex(*entry.Main.AQI)
	if err != nil {
		return nil, err
	}
	return airquality.NewReading(ProviderName, index, entry.Components.concentrations()), nil
}

// FetchHourly fetches the pollution forecast and normalizes it into at most
// 24 hourly points. Transport and status failures are returned as errors; a
// malformed list yields an empty series.
func (c *Client) FetchHourly(ctx context.Context, coords airquality.Coordinates) ([]airquality.HourlyPoint, error) {
	var resp pollutionResponse
	if err := c.get(ctx, "/air_pollution/forecast", coords, &resp); err != nil {
		return nil, err
	}

	entries := make([]airquality.ForecastEntry, 0, len(resp.List))
	for _, item := range resp.List {
		entries = append(entries, airquality.ForecastEntry{
			Timestamp:   item.Dt,
			CoarseIndex: item.Main.AQI,
		})
	}

	points := airquality.NormalizeHourly(entries, c.location)
	if len(points) == 0 && len(entries) > 0 {
		c.logger.Warn().
			Str("coords", coords.String()).
			Int("entries", len(entries)).
			Msg("malformed pollution forecast, returning empty series")
	}

	return points, nil
}

func (c *Client) get(ctx context.Context, path string, coords airquality.Coordinates, out any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d from %s", airquality.ErrUpstreamStatus, resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", airquality.ErrMalformedResponse)
	}

	return nil
}

// OpenWeatherMap API response structures.

type pollutionResponse struct {
	List []pollutionEntry `json:"list"`
}

type pollutionEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI *float64 `json:"aqi"`
	} `json:"main"`
	Components components `json:"components"`
}

type components struct {
	PM25 *float64 `json:"pm2_5"`
	PM10 *float64 `json:"pm10"`
	CO   *float64 `json:"co"`
	NO2  *float64 `json:"no2"`
	SO2  *float64 `json:"so2"`
	O3   *float64 `json:"o3"`
}

func (c components) concentrations() airquality.Concentrations {
	return airquality.NewConcentrations(map[airquality.Pollutant]*float64{
		airquality.PollutantPM25: c.PM25,
		airquality.PollutantPM10: c.PM10,
		airquality.PollutantCO:   c.CO,
		airquality.PollutantNO2:  c.NO2,
		airquality.PollutantSO2:  c.SO2,
		airquality.PollutantO3:   c.O3,
	})
}
