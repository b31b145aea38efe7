package airquality

import (
	"fmt"
	"math"

	"github.com/aqidash/aqidash/internal/units"
)

// CoarseIndexScale converts the 1-5 coarse index onto the 0-500 scale.
// 1→50 … 5→250. This is an approximation, not a standards AQI conversion;
// status thresholds downstream are calibrated to it.
const CoarseIndexScale = 50

// Accepted upstream ranges. Values outside them are malformed responses.
const (
	MinCoarseIndex = 1
	MaxCoarseIndex = 5
	MaxIndex       = 999
)

// Band describes a status band and its presentation hints.
type Band struct {
	Status      Status
	Emoji       string
	Color       string
	HealthAlert string

	// Max is the inclusive upper bound of the band. The last band has none.
	Max int
}

var bands = []Band{
	{Status: StatusGood, Emoji: "😊", Color: "#22c55e", HealthAlert: "Air is clean, perfect for outdoor activities", Max: 50},
	{Status: StatusModerate, Emoji: "😐", Color: "#facc15", HealthAlert: "Air quality is acceptable for most people", Max: 100},
	{Status: StatusUnhealthy, Emoji: "😷", Color: "#f97316", HealthAlert: "Consider wearing a mask when going outside", Max: 200},
}

var hazardous = Band{
	Status:      StatusHazardous,
	Emoji:       "😨",
	Color:       "#dc2626",
	HealthAlert: "Avoid outdoor activities; stay indoors",
}

// Classify maps an index to its band. First band whose Max is >= index wins.
func Classify(index int) Band {
	for _, b := range bands {
		if index <= b.Max {
			return b
		}
	}
	return hazardous
}

// Bands returns every band in ascending order, hazardous last.
func Bands() []Band {
	out := make([]Band, 0, len(bands)+1)
	out = append(out, bands...)
	return append(out, hazardous)
}

// ScaleCoarseIndex converts a coarse 1-5 provider index to the 0-500 scale.
func ScaleCoarseIndex(coarse float64) int {
	return units.RoundHalfUp(coarse * CoarseIndexScale)
}

// ParseIndex checks an index already on the 0-500 scale and rounds it. NaN,
// infinities, negatives and values above MaxIndex are ErrMalformedResponse.
func ParseIndex(v float64) (int, error) {
	if math.IsNaN(v) || v < 0 || v > MaxIndex {
		return 0, fmt.Errorf("aqi %v out of range: %w", v, ErrMalformedResponse)
	}
	return units.RoundHalfUp(v), nil
}

// ParseCoarseIndex checks a coarse index against the 1-5 range and scales it.
func ParseCoarseIndex(coarse float64) (int, error) {
	if math.IsNaN(coarse) || coarse < MinCoarseIndex || coarse > MaxCoarseIndex {
		return 0, fmt.Errorf("coarse aqi %v out of range: %w", coarse, ErrMalformedResponse)
	}
	return ScaleCoarseIndex(coarse), nil
}
