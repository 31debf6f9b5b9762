package domain

import (
	"strings"
	"time"
)

// OrderRuleFlags is the rule outcome written onto an externally owned order
// record. It is the aggregate root of this bounded context: the order itself
// belongs to the order service, only these fields are ours.
type OrderRuleFlags struct {
	OrderID                string                 `bson:"orderId"`
	ShippingType           ShippingMethod         `bson:"shippingType"`
	TotalCBM               float64                `bson:"totalCbm"`
	HighValueAmount        float64                `bson:"highValueAmount"`
	RequiresExtraRecipient bool                   `bson:"requiresExtraRecipient"`
	MemberCodeDelayed      bool                   `bson:"memberCodeDelayed"`
	Validation             BusinessRuleValidation `bson:"validation"`
	EvaluatedAt            time.Time              `bson:"evaluatedAt"`
	DomainEvents           []DomainEvent          `bson:"-"`
}

// NewOrderRuleFlags evaluates the order rules for orderID and records the
// resulting domain events.
func NewOrderRuleFlags(orderID string, boxes []BoxDimensions, items []LineItem, memberCode *string) (*OrderRuleFlags, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, ErrOrderIDRequired
	}

	eval, err := EvaluateOrder(boxes, items, memberCode)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	flags := &OrderRuleFlags{
		OrderID:                orderID,
		ShippingType:           eval.ShippingMethod,
		TotalCBM:               eval.TotalCBM.CBM,
		HighValueAmount:        eval.HighValueAmount,
		RequiresExtraRecipient: eval.Validation.RequiresExtraRecipient,
		MemberCodeDelayed:      eval.Validation.MemberCodeMissing,
		Validation:             eval.Validation,
		EvaluatedAt:            now,
		DomainEvents:           make([]DomainEvent, 0, 2),
	}

	flags.AddDomainEvent(&OrderBusinessRulesEvaluatedEvent{
		OrderID:                orderID,
		TotalCBM:               flags.TotalCBM,
		ShippingType:           string(flags.ShippingType),
		CBMExceedsLimit:        eval.Validation.CBMExceedsLimit,
		AmountExceedsThreshold: eval.Validation.AmountExceedsThreshold,
		RequiresExtraRecipient: eval.Validation.RequiresExtraRecipient,
		MemberCodeMissing:      eval.Validation.MemberCodeMissing,
		Warnings:               eval.Validation.Warnings,
		EvaluatedAt:            now,
	})

	if eval.TotalCBM.RequiresAirConversion {
		flags.AddDomainEvent(&ShipmentConvertedToAirEvent{
			OrderID:     orderID,
			TotalCBM:    flags.TotalCBM,
			ThresholdM3: CBMThresholdM3,
			ConvertedAt: now,
		})
	}

	return flags, nil
}

// AddDomainEvent adds a domain event
func (f *OrderRuleFlags) AddDomainEvent(event DomainEvent) {
	f.DomainEvents = append(f.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (f *OrderRuleFlags) ClearDomainEvents() {
	f.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (f *OrderRuleFlags) GetDomainEvents() []DomainEvent {
	return f.DomainEvents
}
