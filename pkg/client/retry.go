package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	fleetRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_retries_total",
		Help: "Total number of retry attempts by endpoint",
	}, []string{"endpoint"})

	fleetRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fleet_retry_backoff_seconds",
		Help:    "Backoff duration for retries by endpoint",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"endpoint"})

	fleetRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by endpoint",
	}, []string{"endpoint"})
)

// ExhaustionPolicy selects what happens when the retry budget runs out on
// retryable failures.
type ExhaustionPolicy int

const (
	// Propagate surfaces exhaustion as an ErrRetryExhausted error.
	Propagate ExhaustionPolicy = iota

	// ReturnEmpty swallows exhaustion and yields the zero result.
	ReturnEmpty
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (including the first). Must be >= 1.
	MaxAttempts int

	// OnExhaustion selects the behavior once all attempts failed retryably.
	OnExhaustion ExhaustionPolicy

	// InitialBackoff is the delay before the first retry. Zero means
	// immediate retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration: five immediate
// attempts with exhaustion propagated.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		OnExhaustion:      Propagate,
		InitialBackoff:    0,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Retry invokes op up to cfg.MaxAttempts times. A non-retryable failure stops
// the loop immediately and is returned as-is; the retry budget only applies
// to retryable failures. Each retried attempt is logged at warn level with
// the attempt count and failure message. When the budget is exhausted the
// configured ExhaustionPolicy decides between a classified error and the
// zero result.
func Retry[T any](ctx context.Context, cfg RetryConfig, endpoint string, op func() (T, error)) (T, error) {
	var zero T

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := op()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return result, nil
		}

		if !IsRetryable(err) {
			return zero, err
		}

		lastErr = err
		fleetRetriesTotal.WithLabelValues(endpoint).Inc()

		log.Warn().
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Str("error", err.Error()).
			Msg("Request failed, retrying")

		if attempt >= cfg.MaxAttempts {
			break
		}

		if backoff > 0 {
			// Add jitter (±20% randomness).
			jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
			fleetRetryBackoffSeconds.WithLabelValues(endpoint).Observe(jitter.Seconds())

			select {
			case <-ctx.Done():
				log.Warn().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Context cancelled during retry backoff")
				return zero, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			case <-time.After(jitter):
			}

			backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
			if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	// All attempts exhausted via retryable failures.
	fleetRetryExhaustedTotal.WithLabelValues(endpoint).Inc()

	if cfg.OnExhaustion == ReturnEmpty {
		log.Warn().
			Str("endpoint", endpoint).
			Int("max_attempts", cfg.MaxAttempts).
			Msg("Retry attempts exhausted, returning empty result")
		return zero, nil
	}

	log.Warn().
		Str("endpoint", endpoint).
		Int("max_attempts", cfg.MaxAttempts).
		Msg("Retry attempts exhausted")

	return zero, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, cfg.MaxAttempts, lastErr)
}
