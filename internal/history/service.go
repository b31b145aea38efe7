package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/airquality"
	"github.com/aqidash/aqidash/internal/dashboard"
)

// ServiceConfig holds configuration for the history service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// Now returns the recording time. Defaults to time.Now.
	Now func() time.Time
}

// Service records and lists snapshots.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
		now:    now,
	}
}

// Record stores a combined reading for the named location.
func (s *Service) Record(ctx context.Context, city string, coords airquality.Coordinates, reading *dashboard.CombinedReading) (*Snapshot, error) {
	if reading == nil || reading.AirQuality == nil || reading.Weather == nil {
		return nil, ErrInvalidSnapshot
	}

	aq := reading.AirQuality
	wx := reading.Weather
	snap := &Snapshot{
		ID:               uuid.NewString(),
		City:             city,
		Lat:              coords.Lat,
		Lon:              coords.Lon,
		AQI:              aq.Index,
		PM25:             aq.PM25,
		PM10:             aq.PM10,
		CO:               aq.CO,
		NO2:              aq.NO2,
		SO2:              aq.SO2,
		O3:               aq.O3,
		Status:           string(aq.Status),
		Source:           aq.Source,
		Temperature:      wx.Temperature,
		FeelsLike:        wx.FeelsLike,
		Humidity:         wx.Humidity,
		WindSpeed:        wx.WindSpeed,
		WindDirection:    wx.WindDirection,
		Visibility:       wx.Visibility,
		Sunrise:          wx.Sunrise,
		Sunset:           wx.Sunset,
		WeatherCondition: wx.WeatherCondition,
		RecordedAt:       s.now().UTC(),
	}

	if err := s.repo.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	s.logger.Debug().
		Str("snapshot_id", snap.ID).
		Str("city", city).
		Int("aqi", snap.AQI).
		Msg("snapshot recorded")

	return snap, nil
}

// List returns recent snapshots near lat/lon, newest first. Never nil.
func (s *Service) List(ctx context.Context, lat, lon float64, limit int) ([]*Snapshot, error) {
	snaps, err := s.repo.ListByLocation(ctx, lat, lon, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if snaps == nil {
		snaps = []*Snapshot{}
	}
	return snaps, nil
}
