package airquality

import (
	"strconv"
	"time"
)

// MaxHourlyPoints caps the hourly forecast length.
const MaxHourlyPoints = 24

// ForecastEntry is one upstream hourly forecast item before normalization.
type ForecastEntry struct {
	// Timestamp is the forecast hour in Unix seconds.
	Timestamp int64

	// CoarseIndex is the 1-5 index. Nil when the upstream omitted it.
	CoarseIndex *float64
}

// NormalizeHourly converts at most the first 24 entries into hourly points
// labelled with the local hour in loc. A payload where any used entry lacks an
// index, or carries one outside the coarse range, is treated as malformed and
// yields an empty series. The result is never nil.
func NormalizeHourly(entries []ForecastEntry, loc *time.Location) []HourlyPoint {
	if loc == nil {
		loc = time.Local
	}

	if len(entries) > MaxHourlyPoints {
		entries = entries[:MaxHourlyPoints]
	}

	points := make([]HourlyPoint, 0, len(entries))
	for _, e := range entries {
		if e.CoarseIndex == nil {
			return []HourlyPoint{}
		}
		index, err := ParseCoarseIndex(*e.CoarseIndex)
		if err != nil {
			return []HourlyPoint{}
		}
		points = append(points, HourlyPoint{
			Time:  HourLabel(time.Unix(e.Timestamp, 0), loc),
			Index: index,
		})
	}

	return points
}

// HourLabel formats the hour of t in loc as "H:00" with no leading zero.
func HourLabel(t time.Time, loc *time.Location) string {
	return strconv.Itoa(t.In(loc).Hour()) + ":00"
}
