// Package worker provides background jobs for the dashboard backend.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aqidash/aqidash/internal/airquality"
	"github.com/aqidash/aqidash/internal/dashboard"
	"github.com/aqidash/aqidash/internal/history"
)

// ErrNoLocations is returned when a job has nothing to do.
var ErrNoLocations = errors.New("no tracked locations configured")

// Reverser resolves coordinates to a display name. It never fails.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) string
}

// ReadingFetcher produces a combined reading.
type ReadingFetcher interface {
	GetCombinedReading(ctx context.Context, coords airquality.Coordinates) (*dashboard.CombinedReading, error)
}

// Recorder persists a combined reading.
type Recorder interface {
	Record(ctx context.Context, city string, coords airquality.Coordinates, reading *dashboard.CombinedReading) (*history.Snapshot, error)
}

// SnapshotJobConfig holds configuration for creating a SnapshotJob.
type SnapshotJobConfig struct {
	// Locations are the coordinates recorded on every run.
	Locations []airquality.Coordinates

	// Concurrency is the number of locations processed at once.
	// Default: 3
	Concurrency int

	// Timeout bounds the work for a single location.
	// Default: 30 seconds
	Timeout time.Duration

	Geocoder  Reverser
	Dashboard ReadingFetcher
	History   Recorder
	Logger    zerolog.Logger
}

// SnapshotJob records a combined reading for every tracked location.
type SnapshotJob struct {
	locations   []airquality.Coordinates
	concurrency int
	timeout     time.Duration

	geocoder  Reverser
	dashboard ReadingFetcher
	history   Recorder
	logger    zerolog.Logger

	metrics *SnapshotMetrics
}

// SnapshotMetrics tracks job statistics across runs.
type SnapshotMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	SuccessfulSaves int64
	FailedSaves     int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// NewSnapshotJob creates a new snapshot job.
func NewSnapshotJob(cfg SnapshotJobConfig) *SnapshotJob {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &SnapshotJob{
		locations:   cfg.Locations,
		concurrency: concurrency,
		timeout:     timeout,
		geocoder:    cfg.Geocoder,
		dashboard:   cfg.Dashboard,
		history:     cfg.History,
		logger:      cfg.Logger,
		metrics:     &SnapshotMetrics{},
	}
}

// Locations returns the tracked locations.
func (j *SnapshotJob) Locations() []airquality.Coordinates {
	return j.locations
}

// SnapshotResult contains the result of one run.
type SnapshotResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []SnapshotError
}

// SnapshotError describes a location that could not be recorded.
type SnapshotError struct {
	Point airquality.Coordinates
	Error string
}

// Run records every tracked location. Failures are collected per location
// and never abort the run.
func (j *SnapshotJob) Run(ctx context.Context) *SnapshotResult {
	startTime := time.Now()
	result := &SnapshotResult{
		StartTime: startTime,
		Total:     len(j.locations),
	}

	j.logger.Info().
		Int("locations", result.Total).
		Int("concurrency", j.concurrency).
		Msg("starting snapshot job")

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(j.concurrency)

	for _, point := range j.locations {
		g.Go(func() error {
			err := j.recordPoint(ctx, point)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, SnapshotError{Point: point, Error: err.Error()})
				return nil
			}
			result.Successful++
			return nil
		})
	}
	_ = g.Wait()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("snapshot job completed")

	return result
}

func (j *SnapshotJob) recordPoint(ctx context.Context, point airquality.Coordinates) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	city := j.geocoder.Reverse(ctx, point.Lat, point.Lon)

	reading, err := j.dashboard.GetCombinedReading(ctx, point)
	if err != nil {
		j.logger.Warn().Err(err).Str("coords", point.String()).Msg("snapshot fetch failed")
		return err
	}

	if _, err := j.history.Record(ctx, city, point, reading); err != nil {
		j.logger.Error().Err(err).Str("coords", point.String()).Msg("snapshot save failed")
		return err
	}

	return nil
}

// CheckUpstream fetches the first tracked location without recording it.
func (j *SnapshotJob) CheckUpstream(ctx context.Context) error {
	if len(j.locations) == 0 {
		return ErrNoLocations
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	_, err := j.dashboard.GetCombinedReading(ctx, j.locations[0])
	return err
}

func (j *SnapshotJob) updateMetrics(result *SnapshotResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulSaves += int64(result.Successful)
	j.metrics.FailedSaves += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
}

// MetricsSnapshot is a point-in-time copy of SnapshotMetrics.
type MetricsSnapshot struct {
	TotalRuns       int64
	SuccessfulSaves int64
	FailedSaves     int64
	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// GetMetrics returns a copy of the job metrics.
func (j *SnapshotJob) GetMetrics() MetricsSnapshot {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return MetricsSnapshot{
		TotalRuns:       j.metrics.TotalRuns,
		SuccessfulSaves: j.metrics.SuccessfulSaves,
		FailedSaves:     j.metrics.FailedSaves,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
	}
}
