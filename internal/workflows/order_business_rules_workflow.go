package workflows

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/business-rules-service/internal/activities"
	"github.com/wms-platform/business-rules-service/internal/application"
	"github.com/wms-platform/business-rules-service/pkg/temporal"
)

// OrderBusinessRulesInput is the input of OrderBusinessRulesWorkflow
type OrderBusinessRulesInput struct {
	OrderID       string                `json:"orderId"`
	CorrelationID string                `json:"correlationId,omitempty"`
	Boxes         []activities.Box      `json:"boxes"`
	Items         []activities.LineItem `json:"items"`
	MemberCode    *string               `json:"memberCode"`
	// DryRun evaluates the order without writing flags to it
	DryRun bool `json:"dryRun,omitempty"`
}

// OrderBusinessRulesResult is the outcome of OrderBusinessRulesWorkflow
type OrderBusinessRulesResult struct {
	OrderID      string                                 `json:"orderId"`
	ShippingType string                                 `json:"shippingType"`
	Validation   *application.BusinessRuleValidationDTO `json:"validation"`
	Rules        *application.OrderRulesDTO             `json:"rules,omitempty"`
	Applied      bool                                   `json:"applied"`
	Error        string                                 `json:"error,omitempty"`
}

// OrderBusinessRulesWorkflow evaluates the intake rules for an order and
// writes the resulting flags to the order record.
func OrderBusinessRulesWorkflow(ctx workflow.Context, input OrderBusinessRulesInput) (*OrderBusinessRulesResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting order business rules workflow", "orderId", input.OrderID, "boxes", len(input.Boxes), "dryRun", input.DryRun)

	result := &OrderBusinessRulesResult{OrderID: input.OrderID}
	ctx = workflow.WithActivityOptions(ctx, temporal.DefaultActivityOptions())

	// Step 1: evaluate
	var validation application.BusinessRuleValidationDTO
	err := workflow.ExecuteActivity(ctx, temporal.ActivityNames.EvaluateOrderRules, activities.EvaluateOrderRulesInput{
		OrderID:    input.OrderID,
		Boxes:      input.Boxes,
		Items:      input.Items,
		MemberCode: input.MemberCode,
	}).Get(ctx, &validation)
	if err != nil {
		result.Error = fmt.Sprintf("failed to evaluate order rules: %v", err)
		return result, err
	}
	result.Validation = &validation
	result.ShippingType = validation.ShippingMethod

	if len(validation.Warnings) > 0 {
		logger.Info("Order rules raised warnings", "orderId", input.OrderID, "warnings", validation.Warnings)
	}

	if input.DryRun {
		return result, nil
	}

	// Step 2: write flags to the order
	correlationID := input.CorrelationID
	if correlationID == "" {
		correlationID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}

	var rules application.OrderRulesDTO
	err = workflow.ExecuteActivity(ctx, temporal.ActivityNames.ApplyOrderRules, activities.ApplyOrderRulesInput{
		OrderID:       input.OrderID,
		CorrelationID: correlationID,
		Boxes:         input.Boxes,
		Items:         input.Items,
		MemberCode:    input.MemberCode,
	}).Get(ctx, &rules)
	if err != nil {
		result.Error = fmt.Sprintf("failed to apply order rules: %v", err)
		return result, err
	}

	result.Rules = &rules
	result.ShippingType = rules.ShippingType
	result.Applied = true

	logger.Info("Order business rules workflow completed",
		"orderId", input.OrderID,
		"shippingType", rules.ShippingType,
		"requiresExtraRecipient", rules.RequiresExtraRecipient,
		"memberCodeDelayed", rules.MemberCodeDelayed,
	)
	return result, nil
}
