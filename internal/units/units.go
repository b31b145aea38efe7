// Package units holds the unit conversions shared by the air-quality and
// weather normalizers.
package units

import "math"

// RoundHalfUp rounds to the nearest integer with ties going towards +Inf,
// so -2.5 becomes -2 and 2.5 becomes 3. NaN becomes 0 and values beyond the
// int range saturate at math.MaxInt or math.MinInt.
func RoundHalfUp(v float64) int {
	r := math.Floor(v + 0.5)
	switch {
	case math.IsNaN(r):
		return 0
	case r >= math.MaxInt:
		return math.MaxInt
	case r <= math.MinInt:
		return math.MinInt
	}
	return int(r)
}

// MetersPerSecondToKmh converts a wind speed and rounds it.
func MetersPerSecondToKmh(ms float64) int {
	return RoundHalfUp(ms * 3.6)
}

// MetersToKm converts a distance and rounds it.
func MetersToKm(m float64) int {
	return RoundHalfUp(m / 1000)
}
