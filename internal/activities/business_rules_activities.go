package activities

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/wms-platform/business-rules-service/internal/application"
	"github.com/wms-platform/business-rules-service/internal/domain"
	apperrors "github.com/wms-platform/business-rules-service/pkg/errors"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/temporal"
)

// Box is one box of an activity input, in centimetres
type Box struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// LineItem is one priced line of an activity input
type LineItem struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// EvaluateOrderRulesInput is the input of EvaluateOrderRules
type EvaluateOrderRulesInput struct {
	OrderID    string     `json:"orderId"`
	Boxes      []Box      `json:"boxes"`
	Items      []LineItem `json:"items"`
	MemberCode *string    `json:"memberCode"`
}

// ApplyOrderRulesInput is the input of ApplyOrderRules
type ApplyOrderRulesInput struct {
	OrderID       string     `json:"orderId"`
	CorrelationID string     `json:"correlationId,omitempty"`
	Boxes         []Box      `json:"boxes"`
	Items         []LineItem `json:"items"`
	MemberCode    *string    `json:"memberCode"`
}

// BusinessRulesActivities runs the order-intake rules inside Temporal workflows
type BusinessRulesActivities struct {
	service *application.BusinessRuleApplicationService
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewBusinessRulesActivities creates the activities. metrics may be nil.
func NewBusinessRulesActivities(
	service *application.BusinessRuleApplicationService,
	logger *logging.Logger,
	m *metrics.Metrics,
) *BusinessRulesActivities {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BusinessRulesActivities{
		service: service,
		logger:  logger.WithComponent("activities"),
		metrics: m,
	}
}

// EvaluateOrderRules validates an order without touching the order store
func (a *BusinessRulesActivities) EvaluateOrderRules(ctx context.Context, input EvaluateOrderRulesInput) (*application.BusinessRuleValidationDTO, error) {
	start := a.begin(ctx, temporal.ActivityNames.EvaluateOrderRules, input.OrderID)

	result, err := a.service.ValidateOrder(ctx, application.ValidateOrderCommand{
		Boxes:      toBoxInputs(input.Boxes),
		Items:      toLineItemInputs(input.Items),
		MemberCode: input.MemberCode,
	})
	a.end(ctx, temporal.ActivityNames.EvaluateOrderRules, start, err)
	if err != nil {
		return nil, toActivityError(err)
	}

	activity.GetLogger(ctx).Info("Order rules evaluated",
		"orderId", input.OrderID,
		"shippingMethod", result.ShippingMethod,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// ApplyOrderRules evaluates an order and writes the flags to the order store
func (a *BusinessRulesActivities) ApplyOrderRules(ctx context.Context, input ApplyOrderRulesInput) (*application.OrderRulesDTO, error) {
	start := a.begin(ctx, temporal.ActivityNames.ApplyOrderRules, input.OrderID)

	correlationID := input.CorrelationID
	if correlationID == "" {
		correlationID = activity.GetInfo(ctx).WorkflowExecution.ID
	}

	result, err := a.service.ApplyOrderRules(ctx, application.ApplyOrderRulesCommand{
		OrderID:       input.OrderID,
		CorrelationID: correlationID,
		Boxes:         toBoxInputs(input.Boxes),
		Items:         toLineItemInputs(input.Items),
		MemberCode:    input.MemberCode,
	})
	a.end(ctx, temporal.ActivityNames.ApplyOrderRules, start, err)
	if err != nil {
		return nil, toActivityError(err)
	}

	activity.GetLogger(ctx).Info("Order rules applied",
		"orderId", result.OrderID,
		"shippingType", result.ShippingType,
		"events", len(result.Events),
	)
	return result, nil
}

func (a *BusinessRulesActivities) begin(ctx context.Context, activityType, orderID string) time.Time {
	a.logger.WithOperation(activityType).WithOrderID(orderID).ActivityStart(ctx, activityType)
	return time.Now()
}

func (a *BusinessRulesActivities) end(ctx context.Context, activityType string, start time.Time, err error) {
	duration := time.Since(start)
	a.logger.ActivityComplete(ctx, activityType, duration, err == nil)
	if a.metrics != nil {
		a.metrics.RecordActivityCompleted(activityType, err == nil, duration)
	}
}

// toActivityError marks failures a retry cannot fix as non-retryable.
// Store outages stay retryable.
func toActivityError(err error) error {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return sdktemporal.NewNonRetryableApplicationError(err.Error(), temporal.ErrTypeOrderNotFound, err)
	case domain.IsValidationError(err), errors.Is(err, domain.ErrOrderIDRequired):
		return sdktemporal.NewNonRetryableApplicationError(err.Error(), temporal.ErrTypeInvalidInput, err)
	}
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeValidationError {
		return sdktemporal.NewNonRetryableApplicationError(appErr.Message, temporal.ErrTypeInvalidInput, err)
	}
	return err
}

func toBoxInputs(boxes []Box) []application.BoxInput {
	out := make([]application.BoxInput, len(boxes))
	for i, b := range boxes {
		out[i] = application.BoxInput{Width: b.Width, Height: b.Height, Depth: b.Depth}
	}
	return out
}

func toLineItemInputs(items []LineItem) []application.LineItemInput {
	out := make([]application.LineItemInput, len(items))
	for i, item := range items {
		out[i] = application.LineItemInput{Amount: item.Amount, Currency: item.Currency}
	}
	return out
}
