package application

import (
	"errors"
	"fmt"

	"github.com/wms-platform/business-rules-service/internal/domain"
	apperrors "github.com/wms-platform/business-rules-service/pkg/errors"
	"github.com/wms-platform/business-rules-service/pkg/resilience"
)

// toAppError maps domain and infrastructure failures to API errors
func toAppError(err error, orderID string) *apperrors.AppError {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return apperrors.ErrValidationWithFields(ve.Err.Error(), map[string]string{
			validationFieldPath(ve): validationDetail(ve),
		}).Wrap(err)
	case errors.Is(err, domain.ErrOrderIDRequired):
		return apperrors.ErrValidationWithFields("validation failed", map[string]string{
			"orderId": "orderId is required",
		}).Wrap(err)
	case errors.Is(err, domain.ErrOrderNotFound):
		return apperrors.ErrNotFoundWithID("order", orderID).Wrap(err)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ErrServiceUnavailable("order store").Wrap(err)
	default:
		return apperrors.MapDomainError(err)
	}
}

func validationDetail(ve *domain.ValidationError) string {
	if errors.Is(ve, domain.ErrVolumeOutOfRange) {
		return "box dimensions are too large"
	}
	return fmt.Sprintf("must be a positive finite number, got %v", ve.Value)
}

func validationFieldPath(ve *domain.ValidationError) string {
	if errors.Is(ve, domain.ErrInvalidParcelWeight) {
		return fmt.Sprintf("weightsKg[%d]", ve.Index)
	}
	return ve.FieldPath("boxes")
}
