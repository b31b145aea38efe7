package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqidash/aqidash/internal/airquality"
	aqowm "github.com/aqidash/aqidash/internal/airquality/openweathermap"
	"github.com/aqidash/aqidash/internal/airquality/waqi"
	"github.com/aqidash/aqidash/internal/dashboard"
	"github.com/aqidash/aqidash/internal/provider/resilience"
	"github.com/aqidash/aqidash/internal/weather"
	wxowm "github.com/aqidash/aqidash/internal/weather/openweathermap"
)

type fakeAirQuality struct {
	reading *airquality.Reading
	err     error
}

func (f *fakeAirQuality) Fetch(context.Context, airquality.Coordinates) (*airquality.Reading, error) {
	return f.reading, f.err
}

type fakeWeather struct {
	reading *weather.Reading
	err     error
	calls   atomic.Int32
}

func (f *fakeWeather) GetCurrentWeather(context.Context, float64, float64) (*weather.Reading, error) {
	f.calls.Add(1)
	return f.reading, f.err
}

type fakeHourly struct {
	points []airquality.HourlyPoint
	err    error
}

func (f *fakeHourly) FetchHourly(context.Context, airquality.Coordinates) ([]airquality.HourlyPoint, error) {
	return f.points, f.err
}

var coords = airquality.Coordinates{Lat: 28.6, Lon: 77.2}

func TestService_GetCombinedReading(t *testing.T) {
	aq := airquality.NewReading("test", 100, airquality.Concentrations{PM25: 35.2})
	wx := &weather.Reading{Temperature: 28, WindDirection: "E"}
	hourly := []airquality.HourlyPoint{{Time: "13:00", Index: 100}}

	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: &fakeAirQuality{reading: aq},
		Weather:    &fakeWeather{reading: wx},
		Hourly:     &fakeHourly{points: hourly},
		Logger:     zerolog.Nop(),
	})

	got, err := svc.GetCombinedReading(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, aq, got.AirQuality)
	assert.Equal(t, wx, got.Weather)
	assert.Equal(t, hourly, got.Hourly)
}

func TestService_AirQualityFailureDiscardsOtherStrands(t *testing.T) {
	wx := &fakeWeather{reading: &weather.Reading{Temperature: 20}}
	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: &fakeAirQuality{err: errors.New("upstream exploded")},
		Weather:    wx,
		Hourly:     &fakeHourly{points: []airquality.HourlyPoint{{Time: "1:00", Index: 50}}},
		Logger:     zerolog.Nop(),
	})

	got, err := svc.GetCombinedReading(context.Background(), coords)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, airquality.ErrAllSourcesFailed)
	assert.Equal(t, int32(1), wx.calls.Load(), "weather strand still runs to completion")
}

func TestService_AirQualityFailureTakesPrecedence(t *testing.T) {
	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: &fakeAirQuality{err: airquality.ErrAllSourcesFailed},
		Weather:    &fakeWeather{err: errors.New("weather down")},
		Hourly:     &fakeHourly{},
		Logger:     zerolog.Nop(),
	})

	_, err := svc.GetCombinedReading(context.Background(), coords)
	assert.ErrorIs(t, err, airquality.ErrAllSourcesFailed)
}

func TestService_WeatherFailureIsFatal(t *testing.T) {
	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: &fakeAirQuality{reading: airquality.NewReading("test", 10, airquality.Concentrations{})},
		Weather:    &fakeWeather{err: errors.New("weather down")},
		Hourly:     &fakeHourly{},
		Logger:     zerolog.Nop(),
	})

	got, err := svc.GetCombinedReading(context.Background(), coords)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, dashboard.ErrWeatherUnavailable)
}

func TestService_HourlyFailureDegrades(t *testing.T) {
	tests := []struct {
		name   string
		hourly *fakeHourly
	}{
		{name: "error", hourly: &fakeHourly{err: errors.New("forecast down")}},
		{name: "nil series", hourly: &fakeHourly{}},
		{name: "error with partial data", hourly: &fakeHourly{
			points: []airquality.HourlyPoint{{Time: "1:00", Index: 50}},
			err:    errors.New("truncated"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := dashboard.NewService(dashboard.ServiceConfig{
				AirQuality: &fakeAirQuality{reading: airquality.NewReading("test", 10, airquality.Concentrations{})},
				Weather:    &fakeWeather{reading: &weather.Reading{}},
				Hourly:     tt.hourly,
				Logger:     zerolog.Nop(),
			})

			got, err := svc.GetCombinedReading(context.Background(), coords)
			require.NoError(t, err)
			assert.NotNil(t, got.Hourly)
			assert.Empty(t, got.Hourly)
		})
	}
}

// barrier blocks every strand until all three have started.
type barrier struct {
	wg sync.WaitGroup
}

func newBarrier(n int) *barrier {
	b := &barrier{}
	b.wg.Add(n)
	return b
}

func (b *barrier) arrive(t *testing.T) {
	b.wg.Done()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("strands did not run concurrently")
	}
}

type barrierAirQuality struct {
	b *barrier
	t *testing.T
}

func (f *barrierAirQuality) Fetch(context.Context, airquality.Coordinates) (*airquality.Reading, error) {
	f.b.arrive(f.t)
	return airquality.NewReading("test", 42, airquality.Concentrations{}), nil
}

type barrierWeather struct {
	b *barrier
	t *testing.T
}

func (f *barrierWeather) GetCurrentWeather(context.Context, float64, float64) (*weather.Reading, error) {
	f.b.arrive(f.t)
	return &weather.Reading{}, nil
}

type barrierHourly struct {
	b *barrier
	t *testing.T
}

func (f *barrierHourly) FetchHourly(context.Context, airquality.Coordinates) ([]airquality.HourlyPoint, error) {
	f.b.arrive(f.t)
	return nil, nil
}

func TestService_StrandsRunConcurrently(t *testing.T) {
	b := newBarrier(3)
	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: &barrierAirQuality{b: b, t: t},
		Weather:    &barrierWeather{b: b, t: t},
		Hourly:     &barrierHourly{b: b, t: t},
		Logger:     zerolog.Nop(),
	})

	_, err := svc.GetCombinedReading(context.Background(), coords)
	require.NoError(t, err)
}

// TestService_EndToEnd wires the real adapters against fake upstreams.
func TestService_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/air_pollution":
			w.Write([]byte(`{"list":[{"dt":1717243200,"main":{"aqi":2},"components":{"pm2_5":35.2}}]}`))
		case r.URL.Path == "/air_pollution/forecast":
			w.Write([]byte(`{"list":[{"dt":1717243200,"main":{"aqi":2}},{"dt":1717246800,"main":{"aqi":3}}]}`))
		case r.URL.Path == "/weather":
			w.Write([]byte(`{"weather":[{"id":721,"main":"Haze","icon":"50d"}],"main":{"temp":28,"feels_like":30,"humidity":60},"wind":{"speed":3.5,"deg":90},"visibility":8000,"sys":{"sunrise":1717199640,"sunset":1717249740},"timezone":19800}`))
		case strings.HasPrefix(r.URL.Path, "/feed/"):
			t.Error("fallback source must not be called when the primary succeeds")
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	newHTTP := func(name string) *resilience.Client {
		return resilience.NewClient(resilience.DefaultClientConfig(name))
	}

	primary := aqowm.NewClient(aqowm.ClientConfig{BaseURL: upstream.URL, HTTPClient: newHTTP("aq"), Location: time.UTC})
	secondary := waqi.NewClient(waqi.ClientConfig{BaseURL: upstream.URL, HTTPClient: newHTTP("waqi")})

	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: airquality.NewFallback(airquality.FallbackConfig{
			Sources: []airquality.Source{primary, secondary},
			Logger:  zerolog.Nop(),
		}),
		Weather: wxowm.NewClient(wxowm.ClientConfig{BaseURL: upstream.URL, HTTPClient: newHTTP("wx"), Location: time.UTC}),
		Hourly:  primary,
		Logger:  zerolog.Nop(),
	})

	got, err := svc.GetCombinedReading(context.Background(), coords)
	require.NoError(t, err)

	assert.Equal(t, 100, got.AirQuality.Index)
	assert.Equal(t, 35.2, got.AirQuality.PM25)
	assert.Equal(t, airquality.StatusModerate, got.AirQuality.Status)

	assert.Equal(t, 28, got.Weather.Temperature)
	assert.Equal(t, 13, got.Weather.WindSpeed)
	assert.Equal(t, "E", got.Weather.WindDirection)
	assert.Equal(t, 8, got.Weather.Visibility)

	assert.Equal(t, []airquality.HourlyPoint{
		{Time: "12:00", Index: 100},
		{Time: "13:00", Index: 150},
	}, got.Hourly)
}

func TestService_EndToEnd_Fallback(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/air_pollution"):
			w.WriteHeader(http.StatusServiceUnavailable)
		case r.URL.Path == "/weather":
			w.Write([]byte(`{"weather":[{"id":800,"main":"Clear","icon":"01n"}],"main":{"temp":20,"feels_like":20,"humidity":50},"wind":{},"sys":{}}`))
		case strings.HasPrefix(r.URL.Path, "/feed/"):
			w.Write([]byte(`{"status":"ok","data":{"aqi":75,"iaqi":{"pm25":{"v":24}}}}`))
		}
	}))
	defer upstream.Close()

	primary := aqowm.NewClient(aqowm.ClientConfig{BaseURL: upstream.URL, HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("aq"))})
	secondary := waqi.NewClient(waqi.ClientConfig{BaseURL: upstream.URL, HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("waqi"))})

	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: airquality.NewFallback(airquality.FallbackConfig{Sources: []airquality.Source{primary, secondary}}),
		Weather:    wxowm.NewClient(wxowm.ClientConfig{BaseURL: upstream.URL, HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("wx"))}),
		Hourly:     primary,
	})

	got, err := svc.GetCombinedReading(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, 75, got.AirQuality.Index)
	assert.Equal(t, waqi.ProviderName, got.AirQuality.Source)
	assert.Empty(t, got.Hourly)
	assert.Equal(t, weather.IconClearNight, got.Weather.Icon)
}

type blockingWeather struct{}

func (blockingWeather) GetCurrentWeather(ctx context.Context, _, _ float64) (*weather.Reading, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type ctxCheckingAirQuality struct{}

func (ctxCheckingAirQuality) Fetch(ctx context.Context, _ airquality.Coordinates) (*airquality.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return airquality.NewReading("test", 40, airquality.Concentrations{}), nil
}

func TestService_CallerCancellationDoesNotAbortStrands(t *testing.T) {
	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: ctxCheckingAirQuality{},
		Weather:    &fakeWeather{reading: &weather.Reading{Temperature: 20}},
		Hourly:     &fakeHourly{},
		Logger:     zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := svc.GetCombinedReading(ctx, coords)
	require.NoError(t, err)
	assert.Equal(t, 40, got.AirQuality.Index)
}

func TestService_TimeoutBoundsStrands(t *testing.T) {
	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: ctxCheckingAirQuality{},
		Weather:    blockingWeather{},
		Hourly:     &fakeHourly{},
		Timeout:    50 * time.Millisecond,
		Logger:     zerolog.Nop(),
	})

	start := time.Now()
	_, err := svc.GetCombinedReading(context.Background(), coords)
	assert.ErrorIs(t, err, dashboard.ErrWeatherUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)
}

// Disconnecting clients must not open the breakers of healthy upstreams.
func TestService_DisconnectedCallersKeepBreakersClosed(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/air_pollution":
			w.Write([]byte(`{"list":[{"dt":1717243200,"main":{"aqi":1},"components":{}}]}`))
		case r.URL.Path == "/air_pollution/forecast":
			w.Write([]byte(`{"list":[{"dt":1717243200,"main":{"aqi":1}}]}`))
		case r.URL.Path == "/weather":
			w.Write([]byte(`{"weather":[{"id":800,"main":"Clear","icon":"01d"}],"main":{"temp":20,"feels_like":20,"humidity":50},"wind":{},"sys":{}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	aqHTTP := resilience.NewClient(resilience.DefaultClientConfig("openweathermap"))
	wxHTTP := resilience.NewClient(resilience.DefaultClientConfig("openweathermap-weather"))
	primary := aqowm.NewClient(aqowm.ClientConfig{BaseURL: upstream.URL, HTTPClient: aqHTTP, Location: time.UTC})

	svc := dashboard.NewService(dashboard.ServiceConfig{
		AirQuality: airquality.NewFallback(airquality.FallbackConfig{Sources: []airquality.Source{primary}}),
		Weather:    wxowm.NewClient(wxowm.ClientConfig{BaseURL: upstream.URL, HTTPClient: wxHTTP, Location: time.UTC}),
		Hourly:     primary,
		Logger:     zerolog.Nop(),
	})

	for i := 0; i < 2*resilience.DefaultMinRequests; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.GetCombinedReading(ctx, coords)
		require.NoError(t, err)
	}

	assert.Equal(t, gobreaker.StateClosed, aqHTTP.CircuitBreakerState())
	assert.Equal(t, gobreaker.StateClosed, wxHTTP.CircuitBreakerState())

	got, err := svc.GetCombinedReading(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, 50, got.AirQuality.Index)
	assert.Equal(t, 20, got.Weather.Temperature)
}
