package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/business-rules-service/internal/domain"
	apperrors "github.com/wms-platform/business-rules-service/pkg/errors"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/tracing"
)

// Rule set names used in metrics, logs and spans
const (
	RuleSetCBM            = "cbm"
	RuleSetTotalCBM       = "cbm-total"
	RuleSetShippingMethod = "shipping-method"
	RuleSetHighValue      = "high-value"
	RuleSetMemberCode     = "member-code"
	RuleSetOrder          = "order"
	RuleSetAssessment     = "assessment"
	RuleSetApply          = "order-apply"
)

// Flag names recorded when a rule fires
const (
	FlagCBMExceedsLimit        = "cbmExceedsLimit"
	FlagAmountExceedsThreshold = "amountExceedsThreshold"
	FlagMemberCodeMissing      = "memberCodeMissing"
)

// BusinessRuleApplicationService exposes the order-intake rules as use cases
type BusinessRuleApplicationService struct {
	flagsRepo domain.OrderFlagsRepository
	logger    *logging.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// NewBusinessRuleApplicationService creates the service. flagsRepo may be nil
// when persistence is disabled; metrics may be nil.
func NewBusinessRuleApplicationService(
	flagsRepo domain.OrderFlagsRepository,
	logger *logging.Logger,
	m *metrics.Metrics,
) *BusinessRuleApplicationService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BusinessRuleApplicationService{
		flagsRepo: flagsRepo,
		logger:    logger.WithComponent("business-rules"),
		metrics:   m,
		tracer:    otel.Tracer("business-rules"),
	}
}

// PersistenceEnabled reports whether order flags can be written
func (s *BusinessRuleApplicationService) PersistenceEnabled() bool {
	return s.flagsRepo != nil
}

// CalculateCBM computes the volume of a single box
func (s *BusinessRuleApplicationService) CalculateCBM(ctx context.Context, cmd CalculateCBMCommand) (*CBMResultDTO, error) {
	ctx, span, start := s.begin(ctx, RuleSetCBM, 1, 0)
	defer span.End()

	result, err := domain.CalculateSingleCBM(cmd.Box.ToDomain())
	if err != nil {
		return nil, s.reject(ctx, span, RuleSetCBM, start, err, "")
	}

	s.observe(ctx, span, RuleSetCBM, start, cbmFlags(result))
	return ToCBMResultDTO(result), nil
}

// CalculateTotalCBM computes the rounded-then-summed volume of a shipment
func (s *BusinessRuleApplicationService) CalculateTotalCBM(ctx context.Context, cmd CalculateTotalCBMCommand) (*CBMResultDTO, error) {
	ctx, span, start := s.begin(ctx, RuleSetTotalCBM, len(cmd.Boxes), 0)
	defer span.End()

	result, err := domain.CalculateTotalCBM(ToDomainBoxes(cmd.Boxes))
	if err != nil {
		return nil, s.reject(ctx, span, RuleSetTotalCBM, start, err, "")
	}

	if s.metrics != nil {
		s.metrics.ObserveShipmentCBM(result.CBM)
	}
	s.observe(ctx, span, RuleSetTotalCBM, start, cbmFlags(result))

	dto := ToCBMResultDTO(result)
	dto.BoxCount = len(cmd.Boxes)
	return dto, nil
}

// DetermineShippingMethod maps a volume to sea or air freight
func (s *BusinessRuleApplicationService) DetermineShippingMethod(ctx context.Context, query ShippingMethodQuery) *ShippingMethodDTO {
	ctx, span, start := s.begin(ctx, RuleSetShippingMethod, 0, 0)
	defer span.End()

	method := domain.DetermineShippingMethod(query.CBM)

	var flags []string
	if method == domain.ShippingMethodAir {
		flags = append(flags, FlagCBMExceedsLimit)
	}
	s.observe(ctx, span, RuleSetShippingMethod, start, flags)

	return &ShippingMethodDTO{
		CBM:            query.CBM,
		ShippingMethod: string(method),
		ThresholdM3:    domain.CBMThresholdM3,
	}
}

// CheckHighValue sums THB lines and applies the high-value threshold
func (s *BusinessRuleApplicationService) CheckHighValue(ctx context.Context, cmd CheckHighValueCommand) *HighValueDTO {
	ctx, span, start := s.begin(ctx, RuleSetHighValue, 0, len(cmd.Items))
	defer span.End()

	total := domain.SumLineItemsByCurrency(ToDomainLineItems(cmd.Items), domain.HighValueCurrency)
	exceeds := domain.CheckAmountThreshold(total, domain.HighValueCurrency)

	var flags []string
	if exceeds {
		flags = append(flags, FlagAmountExceedsThreshold)
	}
	s.observe(ctx, span, RuleSetHighValue, start, flags)

	return &HighValueDTO{
		TotalAmount:            total,
		Currency:               domain.HighValueCurrency,
		Threshold:              domain.HighValueThreshold,
		AmountExceedsThreshold: exceeds,
		RequiresExtraRecipient: exceeds,
	}
}

// CheckMemberCode reports whether the member code is missing
func (s *BusinessRuleApplicationService) CheckMemberCode(ctx context.Context, cmd CheckMemberCodeCommand) *MemberCodeDTO {
	ctx, span, start := s.begin(ctx, RuleSetMemberCode, 0, 0)
	defer span.End()

	missing := domain.IsMemberCodeMissing(cmd.MemberCode)

	var flags []string
	if missing {
		flags = append(flags, FlagMemberCodeMissing)
	}
	s.observe(ctx, span, RuleSetMemberCode, start, flags)

	return &MemberCodeDTO{MemberCodeMissing: missing}
}

// ValidateOrder runs every contract rule without persisting anything
func (s *BusinessRuleApplicationService) ValidateOrder(ctx context.Context, cmd ValidateOrderCommand) (*BusinessRuleValidationDTO, error) {
	ctx, span, start := s.begin(ctx, RuleSetOrder, len(cmd.Boxes), len(cmd.Items))
	defer span.End()

	eval, err := domain.EvaluateOrder(ToDomainBoxes(cmd.Boxes), ToDomainLineItems(cmd.Items), cmd.MemberCode)
	if err != nil {
		return nil, s.reject(ctx, span, RuleSetOrder, start, err, "")
	}

	if s.metrics != nil {
		s.metrics.ObserveShipmentCBM(eval.TotalCBM.CBM)
	}
	s.observe(ctx, span, RuleSetOrder, start, validationFlags(eval.Validation))
	return ToBusinessRuleValidationDTO(eval), nil
}

// AssessShipment runs the contract rules and the advisory checks
func (s *BusinessRuleApplicationService) AssessShipment(ctx context.Context, cmd AssessShipmentCommand) (*AssessmentDTO, error) {
	ctx, span, start := s.begin(ctx, RuleSetAssessment, len(cmd.Boxes), len(cmd.Items))
	defer span.End()

	assessment, err := domain.AssessShipment(domain.Shipment{
		Boxes:      ToDomainBoxes(cmd.Boxes),
		Items:      ToDomainLineItems(cmd.Items),
		MemberCode: cmd.MemberCode,
		WeightsKg:  cmd.WeightsKg,
	})
	if err != nil {
		return nil, s.reject(ctx, span, RuleSetAssessment, start, err, "")
	}

	span.SetAttributes(
		attribute.Int("rules.advisories", len(assessment.Advisories)),
		attribute.Bool("rules.has_errors", assessment.HasErrors),
	)
	s.observe(ctx, span, RuleSetAssessment, start, validationFlags(assessment.Validation))
	return ToAssessmentDTO(assessment), nil
}

// ApplyOrderRules evaluates an order and writes the resulting flags to the
// order record together with the outbox events.
func (s *BusinessRuleApplicationService) ApplyOrderRules(ctx context.Context, cmd ApplyOrderRulesCommand) (*OrderRulesDTO, error) {
	ctx, span, start := s.begin(ctx, RuleSetApply, len(cmd.Boxes), len(cmd.Items))
	defer span.End()
	span.SetAttributes(attribute.String("wms.order_id", cmd.OrderID))

	if s.flagsRepo == nil {
		return nil, apperrors.ErrServiceUnavailable("order persistence")
	}

	ctx = logging.ContextWithOrderID(ctx, cmd.OrderID)
	if cmd.CorrelationID != "" {
		ctx = logging.ContextWithCorrelationID(ctx, cmd.CorrelationID)
	}

	flags, err := domain.NewOrderRuleFlags(cmd.OrderID, ToDomainBoxes(cmd.Boxes), ToDomainLineItems(cmd.Items), cmd.MemberCode)
	if err != nil {
		return nil, s.reject(ctx, span, RuleSetApply, start, err, cmd.OrderID)
	}

	// snapshot before the repository clears pending events
	dto := ToOrderRulesDTO(flags)

	if err := s.flagsRepo.ApplyFlags(ctx, flags); err != nil {
		if s.metrics != nil {
			s.metrics.RecordOrderFlagsApplied(string(flags.ShippingType), false)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.WithContext(ctx).WithError(err).Error("Failed to apply order rule flags")
		return nil, toAppError(err, cmd.OrderID)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderFlagsApplied(string(flags.ShippingType), true)
		s.metrics.ObserveShipmentCBM(flags.TotalCBM)
	}
	s.observe(ctx, span, RuleSetApply, start, validationFlags(flags.Validation))

	s.logger.Event(ctx, "order.business-rules.applied", map[string]any{
		"orderId":                cmd.OrderID,
		"shippingType":           string(flags.ShippingType),
		"requiresExtraRecipient": flags.RequiresExtraRecipient,
		"memberCodeDelayed":      flags.MemberCodeDelayed,
	})

	return dto, nil
}

// GetOrderRules reads the flags last written to an order
func (s *BusinessRuleApplicationService) GetOrderRules(ctx context.Context, query GetOrderRulesQuery) (*OrderRulesDTO, error) {
	if s.flagsRepo == nil {
		return nil, apperrors.ErrServiceUnavailable("order persistence")
	}

	flags, err := s.flagsRepo.FindFlags(ctx, query.OrderID)
	if err != nil {
		return nil, toAppError(err, query.OrderID)
	}
	return ToOrderRulesDTO(flags), nil
}

// Thresholds returns the fixed rule constants
func (s *BusinessRuleApplicationService) Thresholds(_ context.Context) *ThresholdsDTO {
	return CurrentThresholds()
}

func (s *BusinessRuleApplicationService) begin(ctx context.Context, ruleSet string, boxes, items int) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "rules."+ruleSet,
		trace.WithAttributes(tracing.RuleSpanAttributes(ruleSet, boxes, items)...),
	)
	return ctx, span, time.Now()
}

func (s *BusinessRuleApplicationService) observe(ctx context.Context, span trace.Span, ruleSet string, start time.Time, flags []string) {
	duration := time.Since(start)
	outcome := metrics.OutcomePassed
	if len(flags) > 0 {
		outcome = metrics.OutcomeFlagged
	}

	if s.metrics != nil {
		s.metrics.RecordRuleEvaluation(ruleSet, outcome, duration, flags...)
	}
	s.logger.RuleEvaluation(ctx, ruleSet, flags, duration)

	span.SetAttributes(attribute.StringSlice("rules.fired", flags))
	span.SetStatus(codes.Ok, "")
}

func (s *BusinessRuleApplicationService) reject(ctx context.Context, span trace.Span, ruleSet string, start time.Time, err error, orderID string) error {
	if s.metrics != nil {
		s.metrics.RecordRuleEvaluation(ruleSet, metrics.OutcomeInvalid, time.Since(start))
	}
	s.logger.WithContext(ctx).Warn("Rule input rejected", "ruleSet", ruleSet, "error", err.Error())

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return toAppError(err, orderID)
}

func cbmFlags(result domain.CBMResult) []string {
	if result.ExceedsThreshold {
		return []string{FlagCBMExceedsLimit}
	}
	return nil
}

func validationFlags(v domain.BusinessRuleValidation) []string {
	var flags []string
	if v.CBMExceedsLimit {
		flags = append(flags, FlagCBMExceedsLimit)
	}
	if v.AmountExceedsThreshold {
		flags = append(flags, FlagAmountExceedsThreshold)
	}
	if v.MemberCodeMissing {
		flags = append(flags, FlagMemberCodeMissing)
	}
	return flags
}
