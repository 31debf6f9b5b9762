package activities

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/wms-platform/business-rules-service/internal/application"
	"github.com/wms-platform/business-rules-service/internal/domain"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/temporal"
)

type memoryFlagsRepository struct {
	mu     sync.Mutex
	orders map[string]*domain.OrderRuleFlags
}

func newMemoryFlagsRepository(orderIDs ...string) *memoryFlagsRepository {
	r := &memoryFlagsRepository{orders: make(map[string]*domain.OrderRuleFlags)}
	for _, id := range orderIDs {
		r.orders[id] = nil
	}
	return r
}

func (r *memoryFlagsRepository) ApplyFlags(_ context.Context, flags *domain.OrderRuleFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[flags.OrderID]; !ok {
		return domain.ErrOrderNotFound
	}
	flags.ClearDomainEvents()
	r.orders[flags.OrderID] = flags
	return nil
}

func (r *memoryFlagsRepository) FindFlags(_ context.Context, orderID string) (*domain.OrderRuleFlags, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if flags := r.orders[orderID]; flags != nil {
		return flags, nil
	}
	return nil, domain.ErrOrderNotFound
}

func strPtr(s string) *string { return &s }

func newTestActivities(repo domain.OrderFlagsRepository) (*BusinessRulesActivities, *metrics.Metrics) {
	m := metrics.New(metrics.DefaultConfig("business-rules-service"))
	svc := application.NewBusinessRuleApplicationService(repo, logging.NewNop(), m)
	return NewBusinessRulesActivities(svc, logging.NewNop(), m), m
}

func requireApplicationError(t *testing.T, err error, wantType string, nonRetryable bool) {
	t.Helper()
	require.Error(t, err)
	var appErr *sdktemporal.ApplicationError
	require.True(t, errors.As(err, &appErr), "expected ApplicationError, got %v", err)
	if wantType != "" {
		assert.Equal(t, wantType, appErr.Type())
	}
	assert.Equal(t, nonRetryable, appErr.NonRetryable())
}

func TestEvaluateOrderRules(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	acts, m := newTestActivities(nil)
	env.RegisterActivity(acts.EvaluateOrderRules)

	blob, err := env.ExecuteActivity(acts.EvaluateOrderRules, EvaluateOrderRulesInput{
		OrderID: "ORD-1",
		Boxes:   []Box{{Width: 300, Height: 100, Depth: 1000}},
		Items:   []LineItem{{Amount: 1600, Currency: "THB"}},
	})
	require.NoError(t, err)

	var result application.BusinessRuleValidationDTO
	require.NoError(t, blob.Get(&result))
	assert.True(t, result.CBMExceedsLimit)
	assert.True(t, result.AmountExceedsThreshold)
	assert.True(t, result.MemberCodeMissing)
	assert.Equal(t, "air", result.ShippingMethod)
	assert.Len(t, result.Warnings, 3)

	completed := m.ActivitiesCompleted.WithLabelValues("business-rules-service", temporal.ActivityNames.EvaluateOrderRules, "success")
	assert.Equal(t, 1.0, testutil.ToFloat64(completed))
}

func TestEvaluateOrderRules_InvalidBox(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	acts, m := newTestActivities(nil)
	env.RegisterActivity(acts.EvaluateOrderRules)

	_, err := env.ExecuteActivity(acts.EvaluateOrderRules, EvaluateOrderRulesInput{
		OrderID: "ORD-1",
		Boxes:   []Box{{Width: 10, Height: 0, Depth: 10}},
	})
	requireApplicationError(t, err, temporal.ErrTypeInvalidInput, true)

	failed := m.ActivitiesCompleted.WithLabelValues("business-rules-service", temporal.ActivityNames.EvaluateOrderRules, "error")
	assert.Equal(t, 1.0, testutil.ToFloat64(failed))
}

func TestApplyOrderRules(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()

	repo := newMemoryFlagsRepository("ORD-2")
	acts, _ := newTestActivities(repo)
	env.RegisterActivity(acts.ApplyOrderRules)

	blob, err := env.ExecuteActivity(acts.ApplyOrderRules, ApplyOrderRulesInput{
		OrderID:       "ORD-2",
		CorrelationID: "corr-2",
		Boxes:         []Box{{Width: 100, Height: 100, Depth: 100}},
		MemberCode:    strPtr("M-9"),
	})
	require.NoError(t, err)

	var result application.OrderRulesDTO
	require.NoError(t, blob.Get(&result))
	assert.Equal(t, "ORD-2", result.OrderID)
	assert.Equal(t, "sea", result.ShippingType)
	assert.False(t, result.MemberCodeDelayed)
	assert.Equal(t, []string{"wms.business-rules.order-evaluated"}, result.Events)

	stored, err := repo.FindFlags(context.Background(), "ORD-2")
	require.NoError(t, err)
	assert.Equal(t, domain.ShippingMethodSea, stored.ShippingType)
}

func TestApplyOrderRules_Errors(t *testing.T) {
	tests := []struct {
		name         string
		repo         domain.OrderFlagsRepository
		input        ApplyOrderRulesInput
		wantType     string
		nonRetryable bool
	}{
		{
			name:         "UnknownOrder",
			repo:         newMemoryFlagsRepository(),
			input:        ApplyOrderRulesInput{OrderID: "ORD-404", Boxes: []Box{{Width: 1, Height: 1, Depth: 1}}},
			wantType:     temporal.ErrTypeOrderNotFound,
			nonRetryable: true,
		},
		{
			name:         "InvalidBox",
			repo:         newMemoryFlagsRepository("ORD-3"),
			input:        ApplyOrderRulesInput{OrderID: "ORD-3", Boxes: []Box{{Width: -1, Height: 1, Depth: 1}}},
			wantType:     temporal.ErrTypeInvalidInput,
			nonRetryable: true,
		},
		{
			name:         "BlankOrderID",
			repo:         newMemoryFlagsRepository(),
			input:        ApplyOrderRulesInput{OrderID: " ", Boxes: []Box{{Width: 1, Height: 1, Depth: 1}}},
			wantType:     temporal.ErrTypeInvalidInput,
			nonRetryable: true,
		},
		{
			name:         "PersistenceDisabled",
			repo:         nil,
			input:        ApplyOrderRulesInput{OrderID: "ORD-4", Boxes: []Box{{Width: 1, Height: 1, Depth: 1}}},
			nonRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts testsuite.WorkflowTestSuite
			env := ts.NewTestActivityEnvironment()

			acts, _ := newTestActivities(tt.repo)
			env.RegisterActivity(acts.ApplyOrderRules)

			_, err := env.ExecuteActivity(acts.ApplyOrderRules, tt.input)
			requireApplicationError(t, err, tt.wantType, tt.nonRetryable)
		})
	}
}
