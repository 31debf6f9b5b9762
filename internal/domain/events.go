package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// OrderBusinessRulesEvaluatedEvent is published whenever rule flags are
// written to an order
type OrderBusinessRulesEvaluatedEvent struct {
	OrderID                string    `json:"orderId"`
	TotalCBM               float64   `json:"totalCbm"`
	ShippingType           string    `json:"shippingType"`
	CBMExceedsLimit        bool      `json:"cbmExceedsLimit"`
	AmountExceedsThreshold bool      `json:"amountExceedsThreshold"`
	RequiresExtraRecipient bool      `json:"requiresExtraRecipient"`
	MemberCodeMissing      bool      `json:"memberCodeMissing"`
	Warnings               []string  `json:"warnings"`
	EvaluatedAt            time.Time `json:"evaluatedAt"`
}

func (e *OrderBusinessRulesEvaluatedEvent) EventType() string {
	return "wms.business-rules.order-evaluated"
}
func (e *OrderBusinessRulesEvaluatedEvent) OccurredAt() time.Time { return e.EvaluatedAt }

// ShipmentConvertedToAirEvent is published when an order's volume forces air freight
type ShipmentConvertedToAirEvent struct {
	OrderID     string    `json:"orderId"`
	TotalCBM    float64   `json:"totalCbm"`
	ThresholdM3 float64   `json:"thresholdM3"`
	ConvertedAt time.Time `json:"convertedAt"`
}

func (e *ShipmentConvertedToAirEvent) EventType() string {
	return "wms.business-rules.shipping-converted"
}
func (e *ShipmentConvertedToAirEvent) OccurredAt() time.Time { return e.ConvertedAt }
