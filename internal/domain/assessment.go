package domain

import (
	"fmt"
	"math"
)

// Severity ranks an advisory
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Advisory rule names
const (
	RuleCBM        = "cbm"
	RuleHighValue  = "highValue"
	RuleMemberCode = "memberCode"
	RuleWeight     = "weight"
)

// Shipment is the order-entry view of a shipment used for advisories.
// WeightsKg holds one gross weight per parcel and may be empty.
type Shipment struct {
	Boxes      []BoxDimensions `json:"boxes" yaml:"boxes"`
	Items      []LineItem      `json:"items" yaml:"items"`
	MemberCode *string         `json:"memberCode,omitempty" yaml:"memberCode,omitempty"`
	WeightsKg  []float64       `json:"weightsKg,omitempty" yaml:"weightsKg,omitempty"`
}

// Advisory is a single finding shown to the person entering the order
type Advisory struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Index    *int     `json:"index,omitempty"`
}

// Assessment combines the contract flags with severity-ranked advisories
type Assessment struct {
	Validation      BusinessRuleValidation `json:"validation"`
	Advisories      []Advisory             `json:"advisories"`
	HasErrors       bool                   `json:"hasErrors"`
	TotalCBM        float64                `json:"totalCbm"`
	HighValueAmount float64                `json:"highValueAmount"`
	ShippingMethod  ShippingMethod         `json:"shippingMethod"`
}

// AssessShipment evaluates the order rules and adds advisories for values
// approaching a limit and for parcel weights. Advisories are ordered cbm,
// highValue, memberCode, then weight by parcel index.
func AssessShipment(s Shipment) (Assessment, error) {
	for i, w := range s.WeightsKg {
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return Assessment{}, &ValidationError{Index: i, Field: "weightKg", Value: w, Err: ErrInvalidParcelWeight}
		}
	}

	eval, err := EvaluateOrder(s.Boxes, s.Items, s.MemberCode)
	if err != nil {
		return Assessment{}, err
	}

	advisories := make([]Advisory, 0, 4)

	cbm := eval.TotalCBM.CBM
	switch {
	case eval.TotalCBM.ExceedsThreshold:
		advisories = append(advisories, Advisory{Rule: RuleCBM, Severity: SeverityError, Message: cbmWarning(cbm)})
	case cbm > CBMWarningThresholdM3:
		advisories = append(advisories, Advisory{
			Rule:     RuleCBM,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("total CBM %.6f m³ is approaching the %.1f m³ sea freight limit", cbm, CBMThresholdM3),
		})
	}

	amount := eval.HighValueAmount
	switch {
	case eval.Validation.AmountExceedsThreshold:
		advisories = append(advisories, Advisory{Rule: RuleHighValue, Severity: SeverityWarning, Message: amountWarning(amount)})
	case amount > HighValueInfoThreshold:
		advisories = append(advisories, Advisory{
			Rule:     RuleHighValue,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("THB total %s is close to the %.0f THB extra recipient threshold", formatAmount(amount), HighValueThreshold),
		})
	}

	if eval.Validation.MemberCodeMissing {
		advisories = append(advisories, Advisory{Rule: RuleMemberCode, Severity: SeverityWarning, Message: memberCodeWarning()})
	}

	for i, w := range s.WeightsKg {
		idx := i
		switch {
		case w > ParcelWeightLimitKg:
			advisories = append(advisories, Advisory{
				Rule:     RuleWeight,
				Severity: SeverityError,
				Message:  fmt.Sprintf("parcel weight %.2f kg exceeds the %.0f kg limit", w, ParcelWeightLimitKg),
				Index:    &idx,
			})
		case w > ParcelWeightWarningKg:
			advisories = append(advisories, Advisory{
				Rule:     RuleWeight,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("parcel weight %.2f kg is close to the %.0f kg limit", w, ParcelWeightLimitKg),
				Index:    &idx,
			})
		}
	}

	hasErrors := false
	for _, a := range advisories {
		if a.Severity == SeverityError {
			hasErrors = true
			break
		}
	}

	return Assessment{
		Validation:      eval.Validation,
		Advisories:      advisories,
		HasErrors:       hasErrors,
		TotalCBM:        cbm,
		HighValueAmount: amount,
		ShippingMethod:  eval.ShippingMethod,
	}, nil
}
