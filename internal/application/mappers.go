package application

import (
	"github.com/wms-platform/business-rules-service/internal/domain"
)

// ToCBMResultDTO converts a domain CBMResult
func ToCBMResultDTO(result domain.CBMResult) *CBMResultDTO {
	return &CBMResultDTO{
		CBM:                   result.CBM,
		ExceedsThreshold:      result.ExceedsThreshold,
		RequiresAirConversion: result.RequiresAirConversion,
		ShippingMethod:        string(domain.DetermineShippingMethod(result.CBM)),
		ThresholdM3:           domain.CBMThresholdM3,
	}
}

// ToBusinessRuleValidationDTO converts an order evaluation
func ToBusinessRuleValidationDTO(eval domain.OrderEvaluation) *BusinessRuleValidationDTO {
	dto := validationDTO(eval.Validation)
	dto.TotalCBM = eval.TotalCBM.CBM
	dto.TotalHighValueAmount = eval.HighValueAmount
	dto.ShippingMethod = string(eval.ShippingMethod)
	return &dto
}

func validationDTO(v domain.BusinessRuleValidation) BusinessRuleValidationDTO {
	warnings := v.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return BusinessRuleValidationDTO{
		CBMExceedsLimit:        v.CBMExceedsLimit,
		AmountExceedsThreshold: v.AmountExceedsThreshold,
		RequiresExtraRecipient: v.RequiresExtraRecipient,
		MemberCodeMissing:      v.MemberCodeMissing,
		Warnings:               warnings,
	}
}

// ToAssessmentDTO converts a domain Assessment
func ToAssessmentDTO(a domain.Assessment) *AssessmentDTO {
	validation := validationDTO(a.Validation)
	validation.TotalCBM = a.TotalCBM
	validation.TotalHighValueAmount = a.HighValueAmount
	validation.ShippingMethod = string(a.ShippingMethod)

	advisories := make([]AdvisoryDTO, len(a.Advisories))
	for i, adv := range a.Advisories {
		advisories[i] = AdvisoryDTO{
			Rule:     adv.Rule,
			Severity: string(adv.Severity),
			Message:  adv.Message,
			Index:    adv.Index,
		}
	}

	return &AssessmentDTO{
		Validation:     validation,
		Advisories:     advisories,
		HasErrors:      a.HasErrors,
		TotalCBM:       a.TotalCBM,
		ShippingMethod: string(a.ShippingMethod),
	}
}

// ToOrderRulesDTO converts the flags aggregate. Pending domain events are
// listed by type.
func ToOrderRulesDTO(flags *domain.OrderRuleFlags) *OrderRulesDTO {
	if flags == nil {
		return nil
	}

	var events []string
	for _, e := range flags.GetDomainEvents() {
		events = append(events, e.EventType())
	}

	validation := validationDTO(flags.Validation)
	validation.TotalCBM = flags.TotalCBM
	validation.TotalHighValueAmount = flags.HighValueAmount
	validation.ShippingMethod = string(flags.ShippingType)

	return &OrderRulesDTO{
		OrderID:                flags.OrderID,
		ShippingType:           string(flags.ShippingType),
		TotalCBM:               flags.TotalCBM,
		HighValueAmount:        flags.HighValueAmount,
		RequiresExtraRecipient: flags.RequiresExtraRecipient,
		MemberCodeDelayed:      flags.MemberCodeDelayed,
		Validation:             validation,
		EvaluatedAt:            flags.EvaluatedAt,
		Events:                 events,
	}
}

// CurrentThresholds returns the rule constants
func CurrentThresholds() *ThresholdsDTO {
	return &ThresholdsDTO{
		CBMThresholdM3:         domain.CBMThresholdM3,
		CBMWarningThresholdM3:  domain.CBMWarningThresholdM3,
		HighValueThreshold:     domain.HighValueThreshold,
		HighValueInfoThreshold: domain.HighValueInfoThreshold,
		HighValueCurrency:      domain.HighValueCurrency,
		ParcelWeightLimitKg:    domain.ParcelWeightLimitKg,
		ParcelWeightWarningKg:  domain.ParcelWeightWarningKg,
	}
}
