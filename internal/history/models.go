// Package history records dashboard readings for tracked locations so clients
// can chart how air quality changed over time.
package history

import (
	"errors"
	"math"
	"time"
)

// History errors.
var (
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// GridTolerance is how far apart, in degrees, two coordinates may be and
// still count as the same location.
const GridTolerance = 0.005

// DefaultListLimit caps ListByLocation when no limit is given.
const DefaultListLimit = 48

// MaxListLimit is the largest page ListByLocation returns.
const MaxListLimit = 500

// Snapshot is one recorded combined reading.
type Snapshot struct {
	ID   string
	City string
	Lat  float64
	Lon  float64

	// Air quality.
	AQI    int
	PM25   float64
	PM10   float64
	CO     float64
	NO2    float64
	SO2    float64
	O3     float64
	Status string
	Source string

	// Weather.
	Temperature      int
	FeelsLike        int
	Humidity         int
	WindSpeed        int
	WindDirection    string
	Visibility       int
	Sunrise          string
	Sunset           string
	WeatherCondition string

	RecordedAt time.Time
}

// SameLocation reports whether the snapshot was taken at lat/lon.
func (s *Snapshot) SameLocation(lat, lon float64) bool {
	return math.Abs(s.Lat-lat) < GridTolerance && math.Abs(s.Lon-lon) < GridTolerance
}

// ClampLimit applies the default and maximum list limits.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
