// Package airquality normalizes air-quality readings from upstream providers
// into one shape and classifies them into status bands.
package airquality

import (
	"errors"
	"fmt"
)

// Provider errors.
var (
	ErrAllSourcesFailed  = errors.New("all air-quality sources failed")
	ErrUpstreamStatus    = errors.New("unexpected upstream status")
	ErrMalformedResponse = errors.New("malformed upstream response")
	ErrNoSources         = errors.New("no air-quality sources configured")
)

// Coordinates is a latitude/longitude pair. No range validation is applied.
type Coordinates struct {
	Lat float64
	Lon float64
}

// String renders the coordinates for logs.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lon)
}

// Pollutant identifies a measured pollutant.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25"
	PollutantPM10 Pollutant = "pm10"
	PollutantCO   Pollutant = "co"
	PollutantNO2  Pollutant = "no2"
	PollutantSO2  Pollutant = "so2"
	PollutantO3   Pollutant = "o3"
)

// Status is the health band an index falls into.
type Status string

const (
	StatusGood      Status = "good"
	StatusModerate  Status = "moderate"
	StatusUnhealthy Status = "unhealthy"
	StatusHazardous Status = "hazardous"
)

// Concentrations holds pollutant concentrations. Missing values are 0.
type Concentrations struct {
	PM25 float64
	PM10 float64
	CO   float64
	NO2  float64
	SO2  float64
	O3   float64
}

// Reading is a normalized air-quality reading.
type Reading struct {
	// Index is on the 0-500 scale.
	Index int

	Concentrations

	Status      Status
	HealthAlert string
	Emoji       string
	Color       string

	// Source is the provider that produced the reading.
	Source string
}

// NewReading builds a reading whose status fields are derived from index.
// Every adapter goes through here so status can never disagree with index.
func NewReading(source string, index int, c Concentrations) *Reading {
	band := Classify(index)
	return &Reading{
		Index:          index,
		Concentrations: c,
		Status:         band.Status,
		HealthAlert:    band.HealthAlert,
		Emoji:          band.Emoji,
		Color:          band.Color,
		Source:         source,
	}
}

// HourlyPoint is one entry of the hourly index forecast.
type HourlyPoint struct {
	// Time is the "H:00" label in display-local time.
	Time  string
	Index int
}
