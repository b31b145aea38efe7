package weather

import (
	"strings"
	"time"

	"github.com/aqidash/aqidash/internal/units"
)

// ClockLayout is the 12-hour clock format used for sun times.
const ClockLayout = "3:04 PM"

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Icon classes.
const (
	IconThunderstorm = "fas fa-bolt"
	IconRain         = "fas fa-cloud-rain"
	IconSnow         = "fas fa-snowflake"
	IconAtmosphere   = "fas fa-smog"
	IconClearDay     = "fas fa-sun"
	IconClearNight   = "fas fa-moon"
	IconCloud        = "fas fa-cloud"
)

// Normalizer converts raw observations into display readings. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a normalizer that formats sun times in loc, the same
// display zone used for hourly forecast labels. A nil loc means time.Local.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// Normalize converts raw into a Reading. It is a pure function of raw.
func (n *Normalizer) Normalize(raw *RawObservation) *Reading {
	var windSpeed, windDeg float64
	if raw.WindSpeed != nil {
		windSpeed = *raw.WindSpeed
	}
	if raw.WindDirection != nil {
		windDeg = *raw.WindDirection
	}

	visibility := float64(DefaultVisibilityMeters)
	if raw.Visibility != nil {
		visibility = *raw.Visibility
	}

	return &Reading{
		Temperature:      units.RoundHalfUp(raw.Temperature),
		FeelsLike:        units.RoundHalfUp(raw.FeelsLike),
		Humidity:         units.RoundHalfUp(raw.Humidity),
		WindSpeed:        units.MetersPerSecondToKmh(windSpeed),
		WindDirection:    CompassPoint(windDeg),
		Visibility:       units.MetersToKm(visibility),
		Sunrise:          FormatClock(raw.Sunrise, n.loc),
		Sunset:           FormatClock(raw.Sunset, n.loc),
		WeatherCondition: raw.Condition,
		Icon:             Icon(raw.ConditionCode, strings.Contains(raw.IconCode, "d")),
	}
}

// CompassPoint maps a bearing in degrees to one of 16 compass labels.
// Bearings wrap, so 360 is "N" and -90 is "W".
func CompassPoint(degrees float64) string {
	i := units.RoundHalfUp(degrees/22.5) % len(compassPoints)
	if i < 0 {
		i += len(compassPoints)
	}
	return compassPoints[i]
}

// Icon derives the icon class from a condition code and a day flag.
func Icon(code int, isDay bool) string {
	switch {
	case code >= 200 && code < 300:
		return IconThunderstorm
	case code >= 300 && code < 600:
		return IconRain
	case code >= 600 && code < 700:
		return IconSnow
	case code >= 700 && code < 800:
		return IconAtmosphere
	case code == 800 && isDay:
		return IconClearDay
	case code == 800:
		return IconClearNight
	default:
		return IconCloud
	}
}

// FormatClock renders Unix seconds as a 12-hour clock time in loc.
func FormatClock(unix int64, loc *time.Location) string {
	return time.Unix(unix, 0).In(loc).Format(ClockLayout)
}
