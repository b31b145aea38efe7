// Package resilience wraps upstream HTTP calls in a per-provider circuit
// breaker with optional retries, and keeps a registry of provider health.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Breaker defaults.
const (
	DefaultOpenTimeout      = 60 * time.Second
	DefaultMinRequests      = 5
	DefaultFailureRatio     = 0.5
	DefaultHalfOpenRequests = 1
)

// CircuitBreakerConfig configures the breaker in front of one provider.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests is the number of trial calls let through while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts periodically. Zero keeps them
	// until the next state change.
	Interval time.Duration

	// Timeout is how long the breaker stays open before allowing a trial call.
	Timeout time.Duration

	// ReadyToTrip decides when the closed breaker opens.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// IsExcluded reports errors that count neither as success nor failure.
	// Nil means IsCallerCancellation.
	IsExcluded func(err error) bool

	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig opens after DefaultMinRequests counted calls
// with at least half failing, and lets a trial call through after DefaultOpenTimeout.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:        name,
		MaxRequests: DefaultHalfOpenRequests,
		Timeout:     DefaultOpenTimeout,
		ReadyToTrip: DefaultReadyToTrip,
		IsExcluded:  IsCallerCancellation,
	}
}

// DefaultReadyToTrip trips on a failure ratio of DefaultFailureRatio or more
// once DefaultMinRequests calls have been counted. Excluded calls are not
// counted.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	counted := counts.Requests - counts.TotalExclusions
	if counts.TotalExclusions > counts.Requests || counted < DefaultMinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counted) >= DefaultFailureRatio
}

// IsCallerCancellation reports whether err comes from the caller giving up
// on the request. It says nothing about the upstream's health.
func IsCallerCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// LogStateChanges returns an OnStateChange callback that logs transitions,
// at warn level when a breaker opens.
func LogStateChanges(logger zerolog.Logger) func(name string, from gobreaker.State, to gobreaker.State) {
	return func(name string, from gobreaker.State, to gobreaker.State) {
		event := logger.Info()
		if to == gobreaker.StateOpen {
			event = logger.Warn()
		}
		event.
			Str("provider", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
	}
}

// NewCircuitBreaker builds a gobreaker from cfg.
func NewCircuitBreaker[T any](cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[T] {
	isExcluded := cfg.IsExcluded
	if isExcluded == nil {
		isExcluded = IsCallerCancellation
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.ReadyToTrip,
		IsExcluded:    isExcluded,
		OnStateChange: cfg.OnStateChange,
	})
}
