// Package weather normalizes current-conditions payloads into the display
// units used by the dashboard.
package weather

import "errors"

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrMalformedResponse   = errors.New("malformed weather response")
)

// DefaultVisibilityMeters is assumed when the upstream omits visibility.
const DefaultVisibilityMeters = 10000

// Reading is a normalized current-conditions reading.
type Reading struct {
	// Temperature and FeelsLike in whole degrees Celsius.
	Temperature int
	FeelsLike   int

	// Humidity percentage (0-100).
	Humidity int

	// WindSpeed in km/h; WindDirection is a 16-point compass label.
	WindSpeed     int
	WindDirection string

	// Visibility in km.
	Visibility int

	// Sunrise and Sunset as 12-hour clock strings, e.g. "6:04 AM".
	Sunrise string
	Sunset  string

	// WeatherCondition is the provider's condition group, e.g. "Clouds".
	WeatherCondition string

	// Icon is the icon class for the condition.
	Icon string
}

// RawObservation is a current-conditions payload in provider units:
// metric temperatures, wind in m/s, visibility in meters and Unix-second
// sun times. Optional fields are nil when the provider omitted them.
type RawObservation struct {
	Temperature float64
	FeelsLike   float64
	Humidity    float64

	WindSpeed     *float64
	WindDirection *float64

	Visibility *float64

	Sunrise int64
	Sunset  int64

	ConditionCode int
	Condition     string

	// IconCode is the provider icon id; a "d" marks daytime.
	IconCode string
}
