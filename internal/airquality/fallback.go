package airquality

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Source is an upstream that can produce a current reading.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// FetchCurrent fetches and normalizes the current reading.
	FetchCurrent(ctx context.Context, coords Coordinates) (*Reading, error)
}

// SourceResult is the outcome of one source attempt: either Reading or Err is set.
type SourceResult struct {
	Source   string
	Reading  *Reading
	Err      error
	Duration time.Duration
}

// OK reports whether the attempt produced a reading.
func (r SourceResult) OK() bool {
	return r.Err == nil && r.Reading != nil
}

// RequestRecorder receives per-source timings. Optional.
type RequestRecorder interface {
	RecordRequest(provider, operation string, duration time.Duration, err error)
}

// FallbackConfig holds configuration for the fallback chain.
type FallbackConfig struct {
	// Sources are tried in order; the first success wins.
	Sources []Source

	// Logger for source failures.
	Logger zerolog.Logger

	// Metrics records each attempt. Optional.
	Metrics RequestRecorder
}

// Fallback tries sources one after another until one succeeds.
// Sources are never queried concurrently.
type Fallback struct {
	sources []Source
	logger  zerolog.Logger
	metrics RequestRecorder
}

// NewFallback creates a new fallback chain.
func NewFallback(cfg FallbackConfig) *Fallback {
	return &Fallback{
		sources: cfg.Sources,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
}

// Fetch returns the first successful reading. When every source fails it
// returns ErrAllSourcesFailed; individual source errors are only logged.
func (f *Fallback) Fetch(ctx context.Context, coords Coordinates) (*Reading, error) {
	results := f.Attempts(ctx, coords)
	if len(results) == 0 {
		return nil, ErrNoSources
	}

	last := results[len(results)-1]
	if !last.OK() {
		f.logger.Error().
			Str("coords", coords.String()).
			Int("attempts", len(results)).
			Msg("all air-quality sources failed")
		return nil, ErrAllSourcesFailed
	}

	return last.Reading, nil
}

// Attempts runs the chain and returns every attempt made, in order. The
// slice stops at the first success.
func (f *Fallback) Attempts(ctx context.Context, coords Coordinates) []SourceResult {
	results := make([]SourceResult, 0, len(f.sources))

	for _, src := range f.sources {
		start := time.Now()
		reading, err := src.FetchCurrent(ctx, coords)
		result := SourceResult{
			Source:   src.Name(),
			Reading:  reading,
			Err:      err,
			Duration: time.Since(start),
		}
		if err == nil && reading == nil {
			result.Err = ErrMalformedResponse
		}

		if f.metrics != nil {
			f.metrics.RecordRequest(result.Source, "current_air_quality", result.Duration, result.Err)
		}

		results = append(results, result)

		if result.OK() {
			return results
		}

		f.logger.Warn().
			Err(result.Err).
			Str("source", result.Source).
			Str("coords", coords.String()).
			Dur("duration", result.Duration).
			Msg("air-quality source failed, trying next")
	}

	return results
}
