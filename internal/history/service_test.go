package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqidash/aqidash/internal/airquality"
	"github.com/aqidash/aqidash/internal/dashboard"
	"github.com/aqidash/aqidash/internal/history"
	"github.com/aqidash/aqidash/internal/weather"
)

func combined(index int) *dashboard.CombinedReading {
	return &dashboard.CombinedReading{
		AirQuality: airquality.NewReading("openweathermap", index, airquality.Concentrations{PM25: 35.2, O3: 4}),
		Weather: &weather.Reading{
			Temperature:      28,
			FeelsLike:        31,
			Humidity:         60,
			WindSpeed:        13,
			WindDirection:    "E",
			Visibility:       8,
			Sunrise:          "5:24 AM",
			Sunset:           "7:19 PM",
			WeatherCondition: "Haze",
		},
		Hourly: []airquality.HourlyPoint{},
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newService(repo history.Repository) *history.Service {
	c := &clock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return history.NewService(history.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		Now:        c.now,
	})
}

func TestService_Record(t *testing.T) {
	svc := newService(history.NewInMemoryRepository())

	snap, err := svc.Record(context.Background(), "New Delhi, IN", airquality.Coordinates{Lat: 28.6, Lon: 77.2}, combined(100))
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "New Delhi, IN", snap.City)
	assert.Equal(t, 100, snap.AQI)
	assert.Equal(t, 35.2, snap.PM25)
	assert.Equal(t, "moderate", snap.Status)
	assert.Equal(t, "openweathermap", snap.Source)
	assert.Equal(t, 28, snap.Temperature)
	assert.Equal(t, "E", snap.WindDirection)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 1, 0, 0, time.UTC), snap.RecordedAt)
}

func TestService_Record_Incomplete(t *testing.T) {
	svc := newService(history.NewInMemoryRepository())

	_, err := svc.Record(context.Background(), "x", airquality.Coordinates{}, nil)
	assert.ErrorIs(t, err, history.ErrInvalidSnapshot)

	_, err = svc.Record(context.Background(), "x", airquality.Coordinates{}, &dashboard.CombinedReading{})
	assert.ErrorIs(t, err, history.ErrInvalidSnapshot)
}

func TestService_List(t *testing.T) {
	svc := newService(history.NewInMemoryRepository())
	ctx := context.Background()
	delhi := airquality.Coordinates{Lat: 28.6, Lon: 77.2}

	for _, index := range []int{50, 100, 150} {
		_, err := svc.Record(ctx, "New Delhi, IN", delhi, combined(index))
		require.NoError(t, err)
	}
	_, err := svc.Record(ctx, "Mumbai, IN", airquality.Coordinates{Lat: 19.07, Lon: 72.88}, combined(75))
	require.NoError(t, err)

	snaps, err := svc.List(ctx, 28.601, 77.199, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 150, snaps[0].AQI)
	assert.Equal(t, 100, snaps[1].AQI)

	snaps, err = svc.List(ctx, 51.5, -0.12, 0)
	require.NoError(t, err)
	assert.NotNil(t, snaps)
	assert.Empty(t, snaps)
}

type failingRepo struct{}

func (failingRepo) Save(context.Context, *history.Snapshot) error { return errors.New("disk full") }

func (failingRepo) ListByLocation(context.Context, float64, float64, int) ([]*history.Snapshot, error) {
	return nil, errors.New("connection reset")
}

func TestService_RepositoryErrors(t *testing.T) {
	svc := newService(failingRepo{})

	_, err := svc.Record(context.Background(), "x", airquality.Coordinates{}, combined(10))
	assert.Error(t, err)

	_, err = svc.List(context.Background(), 0, 0, 10)
	assert.Error(t, err)
}
