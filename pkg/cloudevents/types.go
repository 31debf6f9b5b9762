package cloudevents

import "time"

// Event types published by the business-rules service
const (
	OrderBusinessRulesEvaluated = "wms.business-rules.order-evaluated"
	ShipmentConvertedToAir      = "wms.business-rules.shipping-converted"
)

// SourceBusinessRules is the CloudEvents source of this service
const SourceBusinessRules = "/wms/business-rules-service"

// SpecVersion is the CloudEvents specification version emitted
const SpecVersion = "1.0"

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string    `json:"specversion"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	Subject         string    `json:"subject,omitempty"`
	ID              string    `json:"id"`
	Time            time.Time `json:"time"`
	DataContentType string    `json:"datacontenttype"`
	Data            any       `json:"data"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	WorkflowID    string `json:"wmsworkflowid,omitempty"`
	OrderID       string `json:"wmsorderid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
}

// OrderBusinessRulesEvaluatedData is the payload of OrderBusinessRulesEvaluated
type OrderBusinessRulesEvaluatedData struct {
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

// ShipmentConvertedToAirData is the payload of ShipmentConvertedToAir
type ShipmentConvertedToAirData struct {
	OrderID     string    `json:"orderId"`
	TotalCBM    float64   `json:"totalCbm"`
	ThresholdM3 float64   `json:"thresholdM3"`
	ConvertedAt time.Time `json:"convertedAt"`
}
