package api

import (
	"github.com/gin-gonic/gin"

	"github.com/wms-platform/business-rules-service/internal/application"
	"github.com/wms-platform/business-rules-service/pkg/logging"
	"github.com/wms-platform/business-rules-service/pkg/metrics"
	"github.com/wms-platform/business-rules-service/pkg/middleware"
)

// BasePath is the prefix of every business rule route
const BasePath = "/api/v1/business-rules"

// RouterConfig configures NewRouter
type RouterConfig struct {
	ServiceName    string
	Logger         *logging.Logger
	Metrics        *metrics.Metrics
	Service        *application.BusinessRuleApplicationService
	TracingEnabled bool
	// ReadinessCheck probes dependencies for /ready; nil means always ready
	ReadinessCheck func() error
}

// NewRouter builds the gin engine with the standard middleware chain,
// probes, metrics and the business rule routes.
func NewRouter(config RouterConfig) *gin.Engine {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(config.ServiceName, logger.Logger))

	if config.Metrics != nil {
		router.Use(middleware.MetricsMiddleware(config.Metrics))
	}
	if config.TracingEnabled {
		router.Use(middleware.TracingMiddleware(config.ServiceName))
	}

	router.GET("/health", middleware.HealthCheck(config.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(config.ServiceName, config.ReadinessCheck))
	if config.Metrics != nil {
		router.GET("/metrics", middleware.MetricsEndpoint(config.Metrics))
	}

	h := NewHandler(config.Service, logger)
	rules := router.Group(BasePath)
	{
		rules.POST("/cbm", h.CalculateCBM)
		rules.POST("/cbm/total", h.CalculateTotalCBM)
		rules.GET("/shipping-method", h.DetermineShippingMethod)
		rules.POST("/high-value", h.CheckHighValue)
		rules.POST("/member-code", h.CheckMemberCode)
		rules.POST("/validate", h.ValidateOrder)
		rules.POST("/assess", h.AssessShipment)
		rules.GET("/thresholds", h.Thresholds)
		rules.GET("/orders/:orderId", h.GetOrderRules)
		rules.POST("/orders/:orderId/apply", h.ApplyOrderRules)
	}

	return router
}
