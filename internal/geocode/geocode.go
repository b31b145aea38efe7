// Package geocode resolves free-text city queries and coordinates to place
// names. Lookups are best-effort: failures never reach the caller.
package geocode

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// UnknownLocation is returned by Reverse when no name can be resolved.
	UnknownLocation = "Unknown Location"

	// SearchLimit is the maximum number of candidates Search returns.
	SearchLimit = 10
)

// Place is a raw geocoder result.
type Place struct {
	Name    string
	Country string
	Lat     float64
	Lon     float64
}

// DisplayName renders the place as "City, CC".
func (p Place) DisplayName() string {
	return p.Name + ", " + p.Country
}

// City is a search candidate.
type City struct {
	Name string
	Lat  float64
	Lon  float64
}

// Provider is a geocoding backend.
type Provider interface {
	// Direct returns up to limit places matching query.
	Direct(ctx context.Context, query string, limit int) ([]Place, error)

	// Reverse returns up to limit places near the coordinates.
	Reverse(ctx context.Context, lat, lon float64, limit int) ([]Place, error)
}

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	Provider Provider
	Logger   zerolog.Logger
}

// Service wraps a Provider with never-fail semantics.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Search returns up to SearchLimit cities matching query. Any provider
// failure yields an empty, non-nil slice.
func (s *Service) Search(ctx context.Context, query string) []City {
	places, err := s.provider.Direct(ctx, strings.TrimSpace(query), SearchLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("city search failed")
		return []City{}
	}

	if len(places) > SearchLimit {
		places = places[:SearchLimit]
	}

	cities := make([]City, 0, len(places))
	for _, p := range places {
		cities = append(cities, City{Name: p.DisplayName(), Lat: p.Lat, Lon: p.Lon})
	}
	return cities
}

// Reverse returns "City, CC" for the coordinates, or UnknownLocation.
func (s *Service) Reverse(ctx context.Context, lat, lon float64) string {
	places, err := s.provider.Reverse(ctx, lat, lon, 1)
	if err != nil {
		s.logger.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("reverse geocode failed")
		return UnknownLocation
	}
	if len(places) == 0 {
		return UnknownLocation
	}
	return places[0].DisplayName()
}
