package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/wms-platform/business-rules-service/internal/api/dto"
	"github.com/wms-platform/business-rules-service/internal/application"
	"github.com/wms-platform/business-rules-service/pkg/errors"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/middleware"
)

// Handler serves the business rule endpoints
type Handler struct {
	service *application.BusinessRuleApplicationService
	logger  *logging.Logger
}

// NewHandler creates a Handler
func NewHandler(service *application.BusinessRuleApplicationService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) responder(c *gin.Context) *middleware.ErrorResponder {
	return middleware.NewErrorResponder(c, h.logger.Logger)
}

// CalculateCBM handles POST /cbm
func (h *Handler) CalculateCBM(c *gin.Context) {
	responder := h.responder(c)

	var req dto.CalculateCBMRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.CalculateCBM(c.Request.Context(), application.CalculateCBMCommand{Box: req.Box.ToInput()})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CalculateTotalCBM handles POST /cbm/total
func (h *Handler) CalculateTotalCBM(c *gin.Context) {
	responder := h.responder(c)

	var req dto.CalculateTotalCBMRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{"rules.box_count": len(req.Boxes)})

	result, err := h.service.CalculateTotalCBM(c.Request.Context(), application.CalculateTotalCBMCommand{
		Boxes: dto.ToBoxInputs(req.Boxes),
	})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DetermineShippingMethod handles GET /shipping-method?cbm=
func (h *Handler) DetermineShippingMethod(c *gin.Context) {
	responder := h.responder(c)

	var query dto.ShippingMethodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			responder.RespondValidationError("validation failed", middleware.ValidationErrorFormatter(validationErrors))
			return
		}
		responder.RespondWithAppError(errors.ErrValidationWithFields("validation failed", map[string]string{
			"cbm": "must be a number",
		}))
		return
	}

	result := h.service.DetermineShippingMethod(c.Request.Context(), application.ShippingMethodQuery{CBM: *query.CBM})
	c.JSON(http.StatusOK, result)
}

// CheckHighValue handles POST /high-value
func (h *Handler) CheckHighValue(c *gin.Context) {
	responder := h.responder(c)

	var req dto.HighValueRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result := h.service.CheckHighValue(c.Request.Context(), application.CheckHighValueCommand{
		Items: dto.ToLineItemInputs(req.Items),
	})
	c.JSON(http.StatusOK, result)
}

// CheckMemberCode handles POST /member-code
func (h *Handler) CheckMemberCode(c *gin.Context) {
	responder := h.responder(c)

	var req dto.MemberCodeRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result := h.service.CheckMemberCode(c.Request.Context(), application.CheckMemberCodeCommand{MemberCode: req.MemberCode})
	c.JSON(http.StatusOK, result)
}

// ValidateOrder handles POST /validate
func (h *Handler) ValidateOrder(c *gin.Context) {
	responder := h.responder(c)

	var req dto.OrderRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"rules.box_count":  len(req.Boxes),
		"rules.item_count": len(req.Items),
	})

	result, err := h.service.ValidateOrder(c.Request.Context(), req.ToValidateCommand())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AssessShipment handles POST /assess
func (h *Handler) AssessShipment(c *gin.Context) {
	responder := h.responder(c)

	var req dto.AssessRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	result, err := h.service.AssessShipment(c.Request.Context(), req.ToCommand())
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Thresholds handles GET /thresholds
func (h *Handler) Thresholds(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Thresholds(c.Request.Context()))
}

// ApplyOrderRules handles POST /orders/:orderId/apply
func (h *Handler) ApplyOrderRules(c *gin.Context) {
	responder := h.responder(c)

	orderID := c.Param("orderId")
	if appErr := middleware.ValidateVar("orderId", orderID, "required,order_ref"); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	var req dto.OrderRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"order.id":         orderID,
		"rules.box_count":  len(req.Boxes),
		"rules.item_count": len(req.Items),
	})

	result, err := h.service.ApplyOrderRules(c.Request.Context(), req.ToApplyCommand(orderID, middleware.GetCorrelationID(c)))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOrderRules handles GET /orders/:orderId
func (h *Handler) GetOrderRules(c *gin.Context) {
	responder := h.responder(c)

	orderID := c.Param("orderId")
	if appErr := middleware.ValidateVar("orderId", orderID, "required,order_ref"); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{"order.id": orderID})

	result, err := h.service.GetOrderRules(c.Request.Context(), application.GetOrderRulesQuery{OrderID: orderID})
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
