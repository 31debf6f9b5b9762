package asyncapi

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/business-rules-service/api"
	"github.com/wms-platform/business-rules-service/pkg/cloudevents"
)

func newTestValidator(t *testing.T) *EventValidator {
	t.Helper()
	v, err := NewEventValidatorFromBytes(api.AsyncAPISpec)
	require.NoError(t, err)
	return v
}

func TestNewEventValidator_RegistersEventTypes(t *testing.T) {
	v := newTestValidator(t)

	assert.Equal(t, []string{
		cloudevents.OrderBusinessRulesEvaluated,
		cloudevents.ShipmentConvertedToAir,
	}, v.SupportedEventTypes())
	assert.True(t, v.HasSchema(cloudevents.ShipmentConvertedToAir))
	assert.False(t, v.HasSchema("wms.order.received"))

	schema, ok := v.Schema(cloudevents.ShipmentConvertedToAir)
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])
}

func TestNewEventValidator_FromFile(t *testing.T) {
	v, err := NewEventValidator("../../../api/asyncapi/business-rules.yaml")
	require.NoError(t, err)
	assert.Len(t, v.SupportedEventTypes(), 2)

	_, err = NewEventValidator("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestNewEventValidator_RejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{name: "NotYAML", spec: "asyncapi: [unterminated"},
		{
			name: "DuplicateEventType",
			spec: `
components:
  schemas:
    A:
      x-event-type: wms.test
      type: object
    B:
      x-event-type: wms.test
      type: object
`,
		},
		{
			name: "InvalidSchema",
			spec: `
components:
  schemas:
    A:
      x-event-type: wms.test
      type: 12
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEventValidatorFromBytes([]byte(tt.spec))
			assert.Error(t, err)
		})
	}
}

func TestValidateData(t *testing.T) {
	v := newTestValidator(t)
	now := time.Now().UTC()

	tests := []struct {
		name      string
		eventType string
		data      any
		wantErr   bool
	}{
		{
			name:      "EvaluatedValid",
			eventType: cloudevents.OrderBusinessRulesEvaluated,
			data: cloudevents.OrderBusinessRulesEvaluatedData{
				OrderID:      "ORD-1",
				TotalCBM:     12.5,
				ShippingType: "sea",
				Warnings:     []string{},
				EvaluatedAt:  now,
			},
		},
		{
			name:      "EvaluatedNilWarnings",
			eventType: cloudevents.OrderBusinessRulesEvaluated,
			data: cloudevents.OrderBusinessRulesEvaluatedData{
				OrderID:      "ORD-1",
				ShippingType: "air",
				EvaluatedAt:  now,
			},
		},
		{
			name:      "EvaluatedUnknownShippingType",
			eventType: cloudevents.OrderBusinessRulesEvaluated,
			data: cloudevents.OrderBusinessRulesEvaluatedData{
				OrderID:      "ORD-1",
				ShippingType: "rail",
				EvaluatedAt:  now,
			},
			wantErr: true,
		},
		{
			name:      "EvaluatedMissingOrderID",
			eventType: cloudevents.OrderBusinessRulesEvaluated,
			data:      map[string]any{"totalCbm": 1, "shippingType": "sea"},
			wantErr:   true,
		},
		{
			name:      "ConvertedValid",
			eventType: cloudevents.ShipmentConvertedToAir,
			data:      cloudevents.ShipmentConvertedToAirData{OrderID: "ORD-1", TotalCBM: 29.000001, ThresholdM3: 29, ConvertedAt: now},
		},
		{
			name:      "ConvertedAtThreshold",
			eventType: cloudevents.ShipmentConvertedToAir,
			data:      cloudevents.ShipmentConvertedToAirData{OrderID: "ORD-1", TotalCBM: 29, ThresholdM3: 29, ConvertedAt: now},
			wantErr:   true,
		},
		{
			name:      "UnknownType",
			eventType: "wms.unknown",
			data:      map[string]any{},
			wantErr:   true,
		},
		{
			name:      "NilData",
			eventType: cloudevents.ShipmentConvertedToAir,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateData(tt.eventType, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEvent_Envelope(t *testing.T) {
	v := newTestValidator(t)
	factory := cloudevents.NewEventFactory(cloudevents.SourceBusinessRules)
	data := cloudevents.ShipmentConvertedToAirData{OrderID: "ORD-7", TotalCBM: 31, ThresholdM3: 29, ConvertedAt: time.Now().UTC()}

	event := factory.CreateOrderEvent(context.Background(), cloudevents.ShipmentConvertedToAir, "ORD-7", "", data)
	require.NoError(t, v.ValidateEvent(event))

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NoError(t, v.ValidateEventJSON(raw))

	noID := *event
	noID.ID = ""
	assert.ErrorContains(t, v.ValidateEvent(&noID), "event id is required")

	oldSpec := *event
	oldSpec.SpecVersion = "0.3"
	assert.ErrorContains(t, v.ValidateEvent(&oldSpec), "specversion")

	assert.Error(t, v.ValidateEvent(nil))
	assert.Error(t, v.ValidateEventJSON([]byte("{")))
}
