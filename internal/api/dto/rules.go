package dto

import "github.com/wms-platform/business-rules-service/internal/application"

// BoxRequest holds box dimensions in centimetres. Dimension checks are left
// to the rule evaluator so that every box error carries the same field path.
type BoxRequest struct {
	Width  float64 `json:"width" example:"40"`
	Height float64 `json:"height" example:"30"`
	Depth  float64 `json:"depth" example:"20"`
}

// LineItemRequest is a priced order line
type LineItemRequest struct {
	Amount   float64 `json:"amount" binding:"gte=0" example:"899.50"`
	Currency string  `json:"currency" binding:"required,currency_code" example:"THB"`
}

// CalculateCBMRequest is the body of POST /cbm
type CalculateCBMRequest struct {
	Box *BoxRequest `json:"box" binding:"required"`
}

// CalculateTotalCBMRequest is the body of POST /cbm/total. An absent box
// list totals zero.
type CalculateTotalCBMRequest struct {
	Boxes []BoxRequest `json:"boxes"`
}

// ShippingMethodQuery is the query of GET /shipping-method
type ShippingMethodQuery struct {
	CBM *float64 `json:"cbm" form:"cbm" binding:"required,gte=0" example:"12.5"`
}

// HighValueRequest is the body of POST /high-value
type HighValueRequest struct {
	Items []LineItemRequest `json:"items" binding:"required,dive"`
}

// MemberCodeRequest is the body of POST /member-code
type MemberCodeRequest struct {
	MemberCode *string `json:"memberCode" example:"M-1029"`
}

// OrderRequest is the body of POST /validate and POST /orders/:orderId/apply
type OrderRequest struct {
	Boxes      []BoxRequest      `json:"boxes"`
	Items      []LineItemRequest `json:"items" binding:"omitempty,dive"`
	MemberCode *string           `json:"memberCode" example:"M-1029"`
}

// AssessRequest is the body of POST /assess
type AssessRequest struct {
	Boxes      []BoxRequest      `json:"boxes"`
	Items      []LineItemRequest `json:"items" binding:"omitempty,dive"`
	MemberCode *string           `json:"memberCode"`
	WeightsKg  []float64         `json:"weightsKg" example:"12.5"`
}

// ToBoxInputs converts request boxes to command inputs
func ToBoxInputs(boxes []BoxRequest) []application.BoxInput {
	out := make([]application.BoxInput, len(boxes))
	for i, b := range boxes {
		out[i] = b.ToInput()
	}
	return out
}

// ToInput converts a request box to a command input
func (b BoxRequest) ToInput() application.BoxInput {
	return application.BoxInput{Width: b.Width, Height: b.Height, Depth: b.Depth}
}

// ToLineItemInputs converts request lines to command inputs
func ToLineItemInputs(items []LineItemRequest) []application.LineItemInput {
	out := make([]application.LineItemInput, len(items))
	for i, item := range items {
		out[i] = application.LineItemInput{Amount: item.Amount, Currency: item.Currency}
	}
	return out
}

// ToValidateCommand maps the request to a validation command
func (r OrderRequest) ToValidateCommand() application.ValidateOrderCommand {
	return application.ValidateOrderCommand{
		Boxes:      ToBoxInputs(r.Boxes),
		Items:      ToLineItemInputs(r.Items),
		MemberCode: r.MemberCode,
	}
}

// ToApplyCommand maps the request to an apply command for orderID
func (r OrderRequest) ToApplyCommand(orderID, correlationID string) application.ApplyOrderRulesCommand {
	return application.ApplyOrderRulesCommand{
		OrderID:       orderID,
		CorrelationID: correlationID,
		Boxes:         ToBoxInputs(r.Boxes),
		Items:         ToLineItemInputs(r.Items),
		MemberCode:    r.MemberCode,
	}
}

// ToCommand maps the request to an assessment command
func (r AssessRequest) ToCommand() application.AssessShipmentCommand {
	return application.AssessShipmentCommand{
		Boxes:      ToBoxInputs(r.Boxes),
		Items:      ToLineItemInputs(r.Items),
		MemberCode: r.MemberCode,
		WeightsKg:  r.WeightsKg,
	}
}
