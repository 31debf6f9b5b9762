package mongodb

import (
	"context"
	"errors"

	"github.com/wms-platform/business-rules-service/internal/domain"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/resilience"
)

// BreakerName is the circuit breaker guarding the order store
const BreakerName = "order-store"

// ResilientOrderFlagsRepository guards an OrderFlagsRepository with a
// circuit breaker. Missing orders do not count as failures.
type ResilientOrderFlagsRepository struct {
	next    domain.OrderFlagsRepository
	breaker *resilience.CircuitBreaker
}

// NewResilientOrderFlagsRepository wraps next. A nil config uses the defaults.
func NewResilientOrderFlagsRepository(
	next domain.OrderFlagsRepository,
	config *resilience.CircuitBreakerConfig,
	logger *logging.Logger,
	m *metrics.Metrics,
) *ResilientOrderFlagsRepository {
	if config == nil {
		config = resilience.DefaultCircuitBreakerConfig(BreakerName)
	}
	if config.IsSuccessful == nil {
		config.IsSuccessful = isExpectedResult
	}

	return &ResilientOrderFlagsRepository{
		next:    next,
		breaker: resilience.NewCircuitBreaker(config, logger, m),
	}
}

func isExpectedResult(err error) bool {
	return err == nil || errors.Is(err, domain.ErrOrderNotFound)
}

// ApplyFlags writes flags through the breaker
func (r *ResilientOrderFlagsRepository) ApplyFlags(ctx context.Context, flags *domain.OrderRuleFlags) error {
	return r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.next.ApplyFlags(ctx, flags)
	})
}

// FindFlags reads flags through the breaker
func (r *ResilientOrderFlagsRepository) FindFlags(ctx context.Context, orderID string) (*domain.OrderRuleFlags, error) {
	return resilience.ExecuteValue(ctx, r.breaker, func(ctx context.Context) (*domain.OrderRuleFlags, error) {
		return r.next.FindFlags(ctx, orderID)
	})
}

// Breaker exposes the breaker for health reporting
func (r *ResilientOrderFlagsRepository) Breaker() *resilience.CircuitBreaker {
	return r.breaker
}
