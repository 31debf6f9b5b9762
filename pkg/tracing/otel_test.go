package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, provider
}

func TestTracedOperation(t *testing.T) {
	tests := []struct {
		name       string
		opErr      error
		wantStatus codes.Code
	}{
		{name: "Success", opErr: nil, wantStatus: codes.Ok},
		{name: "Failure", opErr: errors.New("order store down"), wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder, provider := newRecordingTracer()
			tracer := provider.Tracer("test")

			result, err := TracedOperation(context.Background(), tracer, "rules.validate_order",
				func(ctx context.Context) (int, error) {
					assert.NotEmpty(t, GetTraceID(ctx))
					return 42, tt.opErr
				},
				RuleSpanAttributes("order", 2, 3)...,
			)

			assert.Equal(t, 42, result)
			assert.Equal(t, tt.opErr, err)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "rules.validate_order", spans[0].Name())
			assert.Equal(t, tt.wantStatus, spans[0].Status().Code)
		})
	}
}

func TestInitialize_Disabled(t *testing.T) {
	cfg := DefaultConfig("business-rules-service")
	cfg.Enabled = false

	tp, err := Initialize(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestMapCarrier(t *testing.T) {
	carrier := MapCarrier{}
	carrier.Set("traceparent", "00-abc-def-01")

	assert.Equal(t, "00-abc-def-01", carrier.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, carrier.Keys())
	assert.Empty(t, GetTraceID(context.Background()))
}
