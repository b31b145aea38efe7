// Package waqi provides the fallback air-quality source backed by the World
// Air Quality Index (aqicn.org) geo feed.
package waqi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/airquality"
	"github.com/aqidash/aqidash/internal/provider/resilience"
)

const (
	// ProviderName identifies this air-quality provider.
	ProviderName = "waqi"

	// DefaultBaseURL is the WAQI API base URL.
	DefaultBaseURL = "https://api.waqi.info"

	statusOK = "ok"
)

// ErrFeedStatus is returned when the feed reports a status other than "ok".
var ErrFeedStatus = errors.New("waqi feed returned error status")

// ClientConfig holds configuration for the WAQI client.
type ClientConfig struct {
	// Token is the aqicn.org API token (required).
	Token string

	// BaseURL is the API base URL (optional, defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a WAQI feed client.
type Client struct {
	token      string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new WAQI client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		token:      cfg.Token,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchCurrent fetches the feed of the station nearest to coords. The
// reported index is already on the 0-500 scale and is used unchanged.
func (c *Client) FetchCurrent(ctx context.Context, coords airquality.Coordinates) (*airquality.Reading, error) {
	endpoint := fmt.Sprintf("%s/feed/geo:%s;%s/?token=%s",
		c.baseURL,
		strconv.FormatFloat(coords.Lat, 'f', -1, 64),
		strconv.FormatFloat(coords.Lon, 'f', -1, 64),
		url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d from feed", airquality.ErrUpstreamStatus, resp.StatusCode)
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", airquality.ErrMalformedResponse)
	}

	if feed.Status != statusOK {
		return nil, fmt.Errorf("%w: %q", ErrFeedStatus, feed.Status)
	}

	var data feedData
	if err := json.Unmarshal(feed.Data, &data); err != nil {
		return nil, fmt.Errorf("decoding feed data: %w", airquality.ErrMalformedResponse)
	}

	index, err := data.index()
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("coords", coords.String()).
		Int("aqi", index).
		Msg("waqi feed reading")

	return airquality.NewReading(ProviderName, index, data.IAQI.concentrations()), nil
}

// WAQI API response structures.

type feedResponse struct {
	Status string `json:"status"`

	// Data is an object on success and a message string on error.
	Data json.RawMessage `json:"data"`
}

type feedData struct {
	// AQI is numeric, or "-" when the station has no current value.
	AQI  json.RawMessage `json:"aqi"`
	IAQI iaqi            `json:"iaqi"`
}

func (d feedData) index() (int, error) {
	var v *float64
	if err := json.Unmarshal(d.AQI, &v); err != nil || v == nil {
		return 0, fmt.Errorf("non-numeric aqi %s: %w", string(d.AQI), airquality.ErrMalformedResponse)
	}
	return airquality.ParseIndex(*v)
}

type measurement struct {
	V *float64 `json:"v"`
}

type iaqi struct {
	PM25 *measurement `json:"pm25"`
	PM10 *measurement `json:"pm10"`
	CO   *measurement `json:"co"`
	NO2  *measurement `json:"no2"`
	SO2  *measurement `json:"so2"`
	O3   *measurement `json:"o3"`
}

func (m *measurement) value() *float64 {
	if m == nil {
		return nil
	}
	return m.V
}

func (i iaqi) concentrations() airquality.Concentrations {
	return airquality.NewConcentrations(map[airquality.Pollutant]*float64{
		airquality.PollutantPM25: i.PM25.value(),
		airquality.PollutantPM10: i.PM10.value(),
		airquality.PollutantCO:   i.CO.value(),
		airquality.PollutantNO2:  i.NO2.value(),
		airquality.PollutantSO2:  i.SO2.value(),
		airquality.PollutantO3:   i.O3.value(),
	})
}
