package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/business-rules-service/internal/domain"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/resilience"
)

type stubFlagsRepository struct {
	err   error
	calls int
}

func (s *stubFlagsRepository) ApplyFlags(context.Context, *domain.OrderRuleFlags) error {
	s.calls++
	return s.err
}

func (s *stubFlagsRepository) FindFlags(_ context.Context, orderID string) (*domain.OrderRuleFlags, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.OrderRuleFlags{OrderID: orderID}, nil
}

func testBreakerConfig() *resilience.CircuitBreakerConfig {
	config := resilience.DefaultCircuitBreakerConfig(BreakerName)
	config.FailureThreshold = 3
	config.Timeout = time.Minute
	return config
}

func TestResilientRepository_TripsOnStoreFailures(t *testing.T) {
	stub := &stubFlagsRepository{err: errors.New("connection refused")}
	m := metrics.New(metrics.DefaultConfig("business-rules-service"))
	repo := NewResilientOrderFlagsRepository(stub, testBreakerConfig(), logging.NewNop(), m)

	flags := &domain.OrderRuleFlags{OrderID: "ORD-1"}
	for i := 0; i < 3; i++ {
		err := repo.ApplyFlags(context.Background(), flags)
		require.Error(t, err)
		assert.NotErrorIs(t, err, resilience.ErrCircuitOpen)
	}

	assert.Equal(t, gobreaker.StateOpen, repo.Breaker().State())

	_, err := repo.FindFlags(context.Background(), "ORD-1")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 3, stub.calls)

	trips := m.CircuitBreakerTrips.WithLabelValues("business-rules-service", BreakerName)
	assert.Equal(t, 1.0, testutil.ToFloat64(trips))
}

func TestResilientRepository_NotFoundDoesNotTrip(t *testing.T) {
	stub := &stubFlagsRepository{err: domain.ErrOrderNotFound}
	repo := NewResilientOrderFlagsRepository(stub, testBreakerConfig(), nil, nil)

	for i := 0; i < 5; i++ {
		_, err := repo.FindFlags(context.Background(), "ORD-404")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	}

	assert.Equal(t, gobreaker.StateClosed, repo.Breaker().State())
	assert.Equal(t, 5, stub.calls)
}

func TestResilientRepository_PassesResults(t *testing.T) {
	stub := &stubFlagsRepository{}
	repo := NewResilientOrderFlagsRepository(stub, nil, nil, nil)

	flags, err := repo.FindFlags(context.Background(), "ORD-2")
	require.NoError(t, err)
	assert.Equal(t, "ORD-2", flags.OrderID)
	assert.NoError(t, repo.ApplyFlags(context.Background(), flags))
	assert.Equal(t, BreakerName, repo.Breaker().Name())
}

func TestEventData(t *testing.T) {
	flags, err := domain.NewOrderRuleFlags("ORD-9",
		[]domain.BoxDimensions{{Width: 300, Height: 100, Depth: 1000}},
		[]domain.LineItem{{Amount: 2000, Currency: "THB"}},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, flags.GetDomainEvents(), 2)

	for _, event := range flags.GetDomainEvents() {
		data, err := eventData(event)
		require.NoError(t, err)
		assert.NotNil(t, data)
	}

	_, err = eventData(nil)
	assert.Error(t, err)
}
