package models

import (
	"github.com/aqidash/aqidash/internal/dashboard"
	"github.com/aqidash/aqidash/internal/geocode"
	"github.com/aqidash/aqidash/internal/history"
)

// AirQualityQuery is the query string of GET /api/air-quality and
// GET /api/geocode. Both values are kept as strings so a missing parameter and
// a malformed one produce distinct validation errors.
type AirQualityQuery struct {
	Lat string `query:"lat" validate:"required,numeric"`
	Lon string `query:"lon" validate:"required,numeric"`
}

// CitySearchQuery is the query string of GET /api/cities/search.
type CitySearchQuery struct {
	Q string `query:"q" validate:"min=2"`
}

// HistoryQuery is the query string of GET /api/history.
type HistoryQuery struct {
	Lat   string `query:"lat" validate:"required,numeric"`
	Lon   string `query:"lon" validate:"required,numeric"`
	Limit string `query:"limit" validate:"omitempty,number"`
}

// AirQuality is the "aqi" block of a dashboard reading.
type AirQuality struct {
	AQI         int     `json:"aqi"`
	PM25        float64 `json:"pm25"`
	PM10        float64 `json:"pm10"`
	CO          float64 `json:"co"`
	NO2         float64 `json:"no2"`
	SO2         float64 `json:"so2"`
	O3          float64 `json:"o3"`
	Status      string  `json:"status"`
	HealthAlert string  `json:"healthAlert"`
	Emoji       string  `json:"emoji"`
	Color       string  `json:"color"`
}

// Weather is the "weather" block of a dashboard reading.
type Weather struct {
	Temperature      int    `json:"temperature"`
	FeelsLike        int    `json:"feelsLike"`
	Humidity         int    `json:"humidity"`
	WindSpeed        int    `json:"windSpeed"`
	WindDirection    string `json:"windDirection"`
	Visibility       int    `json:"visibility"`
	Sunrise          string `json:"sunrise"`
	Sunset           string `json:"sunset"`
	WeatherCondition string `json:"weatherCondition"`
	Icon             string `json:"icon"`
}

// HourlyPoint is one hour of the index forecast.
type HourlyPoint struct {
	Time string `json:"time"`
	AQI  int    `json:"aqi"`
}

// CombinedReading is the GET /api/air-quality response body.
type CombinedReading struct {
	AQI        AirQuality    `json:"aqi"`
	Weather    Weather       `json:"weather"`
	HourlyData []HourlyPoint `json:"hourlyData"`
}

// NewCombinedReading converts an orchestrator result into its wire shape.
// HourlyData is never null.
func NewCombinedReading(r *dashboard.CombinedReading) CombinedReading {
	aq := r.AirQuality
	w := r.Weather

	out := CombinedReading{
		AQI: AirQuality{
			AQI:         aq.Index,
			PM25:        aq.PM25,
			PM10:        aq.PM10,
			CO:          aq.CO,
			NO2:         aq.NO2,
			SO2:         aq.SO2,
			O3:          aq.O3,
			Status:      string(aq.Status),
			HealthAlert: aq.HealthAlert,
			Emoji:       aq.Emoji,
			Color:       aq.Color,
		},
		Weather: Weather{
			Temperature:      w.Temperature,
			FeelsLike:        w.FeelsLike,
			Humidity:         w.Humidity,
			WindSpeed:        w.WindSpeed,
			WindDirection:    w.WindDirection,
			Visibility:       w.Visibility,
			Sunrise:          w.Sunrise,
			Sunset:           w.Sunset,
			WeatherCondition: w.WeatherCondition,
			Icon:             w.Icon,
		},
		HourlyData: make([]HourlyPoint, 0, len(r.Hourly)),
	}

	for _, p := range r.Hourly {
		out.HourlyData = append(out.HourlyData, HourlyPoint{Time: p.Time, AQI: p.Index})
	}

	return out
}

// GeocodeResponse is the GET /api/geocode response body.
type GeocodeResponse struct {
	City string `json:"city"`
}

// City is one GET /api/cities/search result.
type City struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// NewCities converts geocoder results. The result is never nil.
func NewCities(cities []geocode.City) []City {
	out := make([]City, 0, len(cities))
	for _, c := range cities {
		out = append(out, City{Name: c.Name, Lat: c.Lat, Lon: c.Lon})
	}
	return out
}

// Snapshot is one recorded reading in GET /api/history.
type Snapshot struct {
	ID               string    `json:"id"`
	City             string    `json:"city"`
	Lat              float64   `json:"lat"`
	Lon              float64   `json:"lon"`
	AQI              int       `json:"aqi"`
	PM25             float64   `json:"pm25"`
	PM10             float64   `json:"pm10"`
	CO               float64   `json:"co"`
	NO2              float64   `json:"no2"`
	SO2              float64   `json:"so2"`
	O3               float64   `json:"o3"`
	Status           string    `json:"status"`
	Source           string    `json:"source"`
	Temperature      int       `json:"temperature"`
	FeelsLike        int       `json:"feelsLike"`
	Humidity         int       `json:"humidity"`
	WindSpeed        int       `json:"windSpeed"`
	WindDirection    string    `json:"windDirection"`
	Visibility       int       `json:"visibility"`
	Sunrise          string    `json:"sunrise"`
	Sunset           string    `json:"sunset"`
	WeatherCondition string    `json:"weatherCondition"`
	RecordedAt       Timestamp `json:"recordedAt"`
}

// HistoryResponse is the GET /api/history response body.
type HistoryResponse struct {
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Snapshots []Snapshot `json:"snapshots"`
}

// NewHistoryResponse converts recorded snapshots into their wire shape.
func NewHistoryResponse(lat, lon float64, snaps []*history.Snapshot) HistoryResponse {
	out := HistoryResponse{Lat: lat, Lon: lon, Snapshots: make([]Snapshot, 0, len(snaps))}
	for _, s := range snaps {
		out.Snapshots = append(out.Snapshots, Snapshot{
			ID:               s.ID,
			City:             s.City,
			Lat:              s.Lat,
			Lon:              s.Lon,
			AQI:              s.AQI,
			PM25:             s.PM25,
			PM10:             s.PM10,
			CO:               s.CO,
			NO2:              s.NO2,
			SO2:              s.SO2,
			O3:               s.O3,
			Status:           s.Status,
			Source:           s.Source,
			Temperature:      s.Temperature,
			FeelsLike:        s.FeelsLike,
			Humidity:         s.Humidity,
			WindSpeed:        s.WindSpeed,
			WindDirection:    s.WindDirection,
			Visibility:       s.Visibility,
			Sunrise:          s.Sunrise,
			Sunset:           s.Sunset,
			WeatherCondition: s.WeatherCondition,
			RecordedAt:       Timestamp(s.RecordedAt),
		})
	}
	return out
}
