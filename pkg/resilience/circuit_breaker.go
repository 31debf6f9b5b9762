package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	Name                  string
	MaxRequests           uint32        // requests allowed while half-open
	Interval              time.Duration // closed-state count reset period, 0 never resets
	Timeout               time.Duration // open to half-open delay
	FailureThreshold      uint32        // consecutive failures that trip
	FailureRatioThreshold float64
	MinRequestsToTrip     uint32 // requests before the ratio is considered
	// IsSuccessful classifies errors that must not count as failures, such
	// as lookups of missing records. nil counts every error.
	IsSuccessful func(err error) bool
}

// DefaultCircuitBreakerConfig returns the service defaults for name
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:                  name,
		MaxRequests:           DefaultMaxRequests,
		Interval:              DefaultInterval,
		Timeout:               DefaultTimeout,
		FailureThreshold:      DefaultFailureThreshold,
		FailureRatioThreshold: DefaultFailureRatioThreshold,
		MinRequestsToTrip:     DefaultMinRequestsToTrip,
	}
}

// CircuitBreaker wraps gobreaker with logging and metrics
type CircuitBreaker struct {
	cb      *gobreaker.CircuitBreaker
	name    string
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewCircuitBreaker creates a circuit breaker. Metrics may be nil.
func NewCircuitBreaker(config *CircuitBreakerConfig, logger *logging.Logger, m *metrics.Metrics) *CircuitBreaker {
	if logger == nil {
		logger = logging.NewNop()
	}
	breaker := &CircuitBreaker{
		name:    config.Name,
		logger:  logger,
		metrics: m,
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return ShouldTrip(config, counts)
		},
		OnStateChange: breaker.onStateChange,
		IsSuccessful:  config.IsSuccessful,
	}
	breaker.cb = gobreaker.NewCircuitBreaker(settings)

	if m != nil {
		m.SetCircuitBreakerState(config.Name, int(gobreaker.StateClosed))
	}
	return breaker
}

// ShouldTrip applies the consecutive failure and failure ratio limits
func ShouldTrip(config *CircuitBreakerConfig, counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= config.FailureThreshold {
		return true
	}
	if counts.Requests >= config.MinRequestsToTrip && counts.Requests > 0 {
		ratio := float64(counts.TotalFailures) / float64(counts.Requests)
		return ratio >= config.FailureRatioThreshold
	}
	return false
}

func (c *CircuitBreaker) onStateChange(name string, from, to gobreaker.State) {
	c.logger.Warn("Circuit breaker state changed",
		"name", name,
		"from", from.String(),
		"to", to.String(),
	)
	if c.metrics == nil {
		return
	}
	c.metrics.SetCircuitBreakerState(name, int(to))
	if to == gobreaker.StateOpen {
		c.metrics.RecordCircuitBreakerTrip(name)
	}
}

// Execute runs fn through the breaker. Rejections wrap ErrCircuitOpen.
func (c *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("Circuit breaker rejected call", "name", c.name, "reason", err.Error())
		return fmt.Errorf("%w: %s", ErrCircuitOpen, c.name)
	}
	return err
}

// ExecuteValue is Execute for calls that return a value
func ExecuteValue[T any](ctx context.Context, c *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := c.Execute(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func (c *CircuitBreaker) State() gobreaker.State {
	return c.cb.State()
}

func (c *CircuitBreaker) Name() string {
	return c.name
}

func (c *CircuitBreaker) Counts() gobreaker.Counts {
	return c.cb.Counts()
}

// RetryConfig configures exponential backoff
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Retryable     func(error) bool // nil retries every error
}

// DefaultRetryConfig returns the service defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   DefaultRetryMaxAttempts,
		InitialDelay:  DefaultRetryInitialDelay,
		MaxDelay:      DefaultRetryMaxDelay,
		BackoffFactor: DefaultRetryBackoffFactor,
	}
}

// Retry calls fn until it succeeds, returns a non-retryable error, or runs
// out of attempts.
func Retry(ctx context.Context, config *RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if config.Retryable != nil && !config.Retryable(err) {
			return err
		}
		if attempt == config.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempts: %w", config.MaxAttempts, lastErr)
}
