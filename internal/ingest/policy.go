package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	apperrors "github.com/fortuna/hermes/internal/errors"
)

// PolicyConfig bounds how hard the service leans on the origin site.
type PolicyConfig struct {
	MaxRetries   int           // attempts per fetch, including the first
	RetryBackoff time.Duration // delay before attempt 2, doubled each retry
	RateLimitRPS float64       // sustained origin requests per second
	RateBurst    int
}

// DefaultPolicyConfig returns the fetch policy defaults.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MaxRetries:   3,
		RetryBackoff: 500 * time.Millisecond,
		RateLimitRPS: 0.5,
		RateBurst:    2,
	}
}

// PolicyFetcher wraps a Fetcher with the origin-protection policy:
// token-bucket rate limiting, bounded retries with doubling backoff, and
// a circuit breaker that trips when the origin keeps failing so callers
// fail fast onto the stale-cache path instead of burning timeouts.
type PolicyFetcher struct {
	inner   Fetcher
	config  PolicyConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

var _ Fetcher = (*PolicyFetcher)(nil)

// NewPolicyFetcher wraps inner with the origin-protection policy.
func NewPolicyFetcher(inner Fetcher, config PolicyConfig, logger *logrus.Logger) *PolicyFetcher {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if config.RateLimitRPS <= 0 {
		config.RateLimitRPS = DefaultPolicyConfig().RateLimitRPS
	}
	if config.RateBurst < 1 {
		config.RateBurst = 1
	}

	settings := gobreaker.Settings{
		Name:    "origin",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &PolicyFetcher{
		inner:   inner,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.RateBurst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Fetch applies the policy around the inner fetcher.
func (f *PolicyFetcher) Fetch(ctx context.Context, query SourceQuery) (*RawPage, error) {
	var lastErr error
	backoff := f.config.RetryBackoff

	for attempt := 1; attempt <= f.config.MaxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter wait: %v", apperrors.ErrSourceUnavailable, err)
		}

		result, err := f.breaker.Execute(func() (interface{}, error) {
			return f.inner.Fetch(ctx, query)
		})
		if err == nil {
			return result.(*RawPage), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: origin circuit open for %s", apperrors.ErrSourceUnavailable, query.String())
		}

		lastErr = err
		f.logger.WithFields(logrus.Fields{
			"query":   query.String(),
			"attempt": attempt,
			"max":     f.config.MaxRetries,
		}).WithError(err).Warn("Origin fetch attempt failed")

		if attempt < f.config.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: fetch cancelled for %s: %v", apperrors.ErrSourceUnavailable, query.String(), ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	if errors.Is(lastErr, apperrors.ErrSourceUnavailable) {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, lastErr)
}

// Probe delegates to the inner fetcher without retries; a health probe
// should reflect the origin as it is right now.
func (f *PolicyFetcher) Probe(ctx context.Context) error {
	return f.inner.Probe(ctx)
}

// Close closes the inner fetcher.
func (f *PolicyFetcher) Close() error {
	return f.inner.Close()
}
