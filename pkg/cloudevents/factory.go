package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wms-platform/business-rules-service/pkg/tracing"
)

// EventFactory creates CloudEvents for a single source
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// Source returns the CloudEvents source of the factory
func (f *EventFactory) Source() string {
	return f.source
}

// CreateEvent creates a new WMSCloudEvent. The W3C traceparent of the
// active span, if any, is carried as an extension.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data any) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     SpecVersion,
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
	}

	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	event.TraceParent = carrier.Get("traceparent")

	return event
}

// CreateOrderEvent creates an event about an order, keyed by order subject
func (f *EventFactory) CreateOrderEvent(ctx context.Context, eventType, orderID, correlationID string, data any) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, "order/"+orderID, data)
	event.OrderID = orderID
	event.CorrelationID = correlationID
	return event
}
