package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		name     string
		sampler  string
		ratio    float64
		contains string
	}{
		{"always", SamplerAlways, 0, "AlwaysOnSampler"},
		{"never", SamplerNever, 0, "AlwaysOffSampler"},
		{"ratio", SamplerRatio, 0.5, "TraceIDRatioBased{0.5}"},
		{"ratio out of range", SamplerRatio, 2, "AlwaysOnSampler"},
		{"never ignores ratio", SamplerNever, 2, "AlwaysOffSampler"},
		{"unknown", "sometimes", 0, "AlwaysOnSampler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, newSampler(tt.sampler, tt.ratio).Description(), tt.contains)
		})
	}
}

func TestWithSpan(t *testing.T) {
	recorder := withRecorder(t)

	err := WithSpan(context.Background(), "stage.ok", func(context.Context) error { return nil },
		attribute.String("skill", "api-design"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithSpan(context.Background(), "stage.fail", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "stage.ok", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("skill", "api-design"))
	assert.Equal(t, "stage.fail", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestWithSpanFunc_RecordError(t *testing.T) {
	recorder := withRecorder(t)

	WithSpanFunc(context.Background(), "stage", func(ctx context.Context) {
		SetAttributes(ctx, attribute.Int("count", 2))
		RecordError(ctx, errors.New("skipped"))
	})

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.Int("count", 2))
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}
