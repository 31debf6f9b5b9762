package application

import "github.com/wms-platform/business-rules-service/internal/domain"

// BoxInput is one box of a command, in centimetres
type BoxInput struct {
	Width  float64
	Height float64
	Depth  float64
}

// LineItemInput is one priced line of a command
type LineItemInput struct {
	Amount   float64
	Currency string
}

// CalculateCBMCommand evaluates a single box
type CalculateCBMCommand struct {
	Box BoxInput
}

// CalculateTotalCBMCommand evaluates a whole shipment
type CalculateTotalCBMCommand struct {
	Boxes []BoxInput
}

// ShippingMethodQuery selects a freight mode for a known volume
type ShippingMethodQuery struct {
	CBM float64
}

// CheckHighValueCommand sums THB lines against the high-value threshold
type CheckHighValueCommand struct {
	Items []LineItemInput
}

// CheckMemberCodeCommand checks whether a member code is present
type CheckMemberCodeCommand struct {
	MemberCode *string
}

// ValidateOrderCommand runs every contract rule against an order payload
type ValidateOrderCommand struct {
	Boxes      []BoxInput
	Items      []LineItemInput
	MemberCode *string
}

// AssessShipmentCommand runs the rules plus the advisory checks
type AssessShipmentCommand struct {
	Boxes      []BoxInput
	Items      []LineItemInput
	MemberCode *string
	WeightsKg  []float64
}

// ApplyOrderRulesCommand evaluates an order and writes the flags to it
type ApplyOrderRulesCommand struct {
	OrderID       string
	CorrelationID string
	Boxes         []BoxInput
	Items         []LineItemInput
	MemberCode    *string
}

// GetOrderRulesQuery reads the flags stored on an order
type GetOrderRulesQuery struct {
	OrderID string
}

// ToDomainBoxes converts box inputs to domain dimensions
func ToDomainBoxes(boxes []BoxInput) []domain.BoxDimensions {
	out := make([]domain.BoxDimensions, len(boxes))
	for i, b := range boxes {
		out[i] = b.ToDomain()
	}
	return out
}

func (b BoxInput) ToDomain() domain.BoxDimensions {
	return domain.BoxDimensions{Width: b.Width, Height: b.Height, Depth: b.Depth}
}

// ToDomainLineItems converts line item inputs to domain line items
func ToDomainLineItems(items []LineItemInput) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	for i, item := range items {
		out[i] = domain.LineItem{Amount: item.Amount, Currency: item.Currency}
	}
	return out
}
