package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BusinessRuleValidation is the flag set produced for an order
type BusinessRuleValidation struct {
	CBMExceedsLimit        bool     `json:"cbmExceedsLimit" bson:"cbmExceedsLimit"`
	AmountExceedsThreshold bool     `json:"amountExceedsThreshold" bson:"amountExceedsThreshold"`
	RequiresExtraRecipient bool     `json:"requiresExtraRecipient" bson:"requiresExtraRecipient"`
	MemberCodeMissing      bool     `json:"memberCodeMissing" bson:"memberCodeMissing"`
	Warnings               []string `json:"warnings" bson:"warnings"`
}

// OrderEvaluation carries the flags together with the figures they were
// derived from.
type OrderEvaluation struct {
	Validation      BusinessRuleValidation
	TotalCBM        CBMResult
	HighValueAmount float64
	ShippingMethod  ShippingMethod
}

// ValidateOrder evaluates all order rules. Warnings are appended in a fixed
// order: CBM, amount, member code. An invalid box fails the whole call.
func ValidateOrder(boxes []BoxDimensions, items []LineItem, memberCode *string) (BusinessRuleValidation, error) {
	eval, err := EvaluateOrder(boxes, items, memberCode)
	if err != nil {
		return BusinessRuleValidation{}, err
	}
	return eval.Validation, nil
}

// EvaluateOrder is ValidateOrder plus the total CBM and THB amount.
func EvaluateOrder(boxes []BoxDimensions, items []LineItem, memberCode *string) (OrderEvaluation, error) {
	total, err := CalculateTotalCBM(boxes)
	if err != nil {
		return OrderEvaluation{}, err
	}

	validation := BusinessRuleValidation{Warnings: []string{}}

	if total.ExceedsThreshold {
		validation.CBMExceedsLimit = true
		validation.Warnings = append(validation.Warnings, cbmWarning(total.CBM))
	}

	amount := SumLineItemsByCurrency(items, HighValueCurrency)
	if CheckAmountThreshold(amount, HighValueCurrency) {
		validation.AmountExceedsThreshold = true
		validation.Warnings = append(validation.Warnings, amountWarning(amount))
	}
	validation.RequiresExtraRecipient = validation.AmountExceedsThreshold

	if IsMemberCodeMissing(memberCode) {
		validation.MemberCodeMissing = true
		validation.Warnings = append(validation.Warnings, memberCodeWarning())
	}

	return OrderEvaluation{
		Validation:      validation,
		TotalCBM:        total,
		HighValueAmount: amount,
		ShippingMethod:  DetermineShippingMethod(total.CBM),
	}, nil
}

func cbmWarning(cbm float64) string {
	return fmt.Sprintf("total CBM %.6f m³ exceeds the %.1f m³ sea freight limit; shipment converts to air", cbm, CBMThresholdM3)
}

func amountWarning(amount float64) string {
	return fmt.Sprintf("THB total %s exceeds %.0f THB; extra recipient information is required", formatAmount(amount), HighValueThreshold)
}

// formatAmount prints at least two decimals and never rounds away digits,
// so 1500.004 does not read as 1500.00.
func formatAmount(amount float64) string {
	d := decimal.NewFromFloat(amount)
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	return d.String()
}

func memberCodeWarning() string {
	return "member code is missing; order processing may be delayed"
}
