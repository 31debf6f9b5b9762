package application

import "time"

// CBMResultDTO is the result of a box or shipment volume calculation
type CBMResultDTO struct {
	CBM                   float64 `json:"cbm"`
	ExceedsThreshold      bool    `json:"exceedsThreshold"`
	RequiresAirConversion bool    `json:"requiresAirConversion"`
	ShippingMethod        string  `json:"shippingMethod"`
	ThresholdM3           float64 `json:"thresholdM3"`
	BoxCount              int     `json:"boxCount,omitempty"`
}

// ShippingMethodDTO is the freight mode chosen for a volume
type ShippingMethodDTO struct {
	CBM            float64 `json:"cbm"`
	ShippingMethod string  `json:"shippingMethod"`
	ThresholdM3    float64 `json:"thresholdM3"`
}

// HighValueDTO reports the THB total of an order and the extra recipient flag
type HighValueDTO struct {
	TotalAmount            float64 `json:"totalAmount"`
	Currency               string  `json:"currency"`
	Threshold              float64 `json:"threshold"`
	AmountExceedsThreshold bool    `json:"amountExceedsThreshold"`
	RequiresExtraRecipient bool    `json:"requiresExtraRecipient"`
}

// MemberCodeDTO reports whether the member code is missing
type MemberCodeDTO struct {
	MemberCodeMissing bool `json:"memberCodeMissing"`
}

// BusinessRuleValidationDTO is the full contract validation of an order
type BusinessRuleValidationDTO struct {
	CBMExceedsLimit        bool     `json:"cbmExceedsLimit"`
	AmountExceedsThreshold bool     `json:"amountExceedsThreshold"`
	RequiresExtraRecipient bool     `json:"requiresExtraRecipient"`
	MemberCodeMissing      bool     `json:"memberCodeMissing"`
	Warnings               []string `json:"warnings"`
	TotalCBM               float64  `json:"totalCbm"`
	TotalHighValueAmount   float64  `json:"totalHighValueAmount"`
	ShippingMethod         string   `json:"shippingMethod"`
}

// AdvisoryDTO is one severity tagged advisory
type AdvisoryDTO struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Index    *int   `json:"index,omitempty"`
}

// AssessmentDTO is the validation plus advisories for a shipment
type AssessmentDTO struct {
	Validation     BusinessRuleValidationDTO `json:"validation"`
	Advisories     []AdvisoryDTO             `json:"advisories"`
	HasErrors      bool                      `json:"hasErrors"`
	TotalCBM       float64                   `json:"totalCbm"`
	ShippingMethod string                    `json:"shippingMethod"`
}

// OrderRulesDTO is the set of flags written to an order
type OrderRulesDTO struct {
	OrderID                string                    `json:"orderId"`
	ShippingType           string                    `json:"shippingType"`
	TotalCBM               float64                   `json:"totalCbm"`
	HighValueAmount        float64                   `json:"highValueAmount"`
	RequiresExtraRecipient bool                      `json:"requiresExtraRecipient"`
	MemberCodeDelayed      bool                      `json:"memberCodeDelayed"`
	Validation             BusinessRuleValidationDTO `json:"validation"`
	EvaluatedAt            time.Time                 `json:"evaluatedAt"`
	Events                 []string                  `json:"events,omitempty"`
}

// ThresholdsDTO exposes the fixed rule constants
type ThresholdsDTO struct {
	CBMThresholdM3         float64 `json:"cbmThresholdM3"`
	CBMWarningThresholdM3  float64 `json:"cbmWarningThresholdM3"`
	HighValueThreshold     float64 `json:"highValueThreshold"`
	HighValueInfoThreshold float64 `json:"highValueInfoThreshold"`
	HighValueCurrency      string  `json:"highValueCurrency"`
	ParcelWeightLimitKg    float64 `json:"parcelWeightLimitKg"`
	ParcelWeightWarningKg  float64 `json:"parcelWeightWarningKg"`
}
