package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/taskscheduler/logger"
)

func TestNewTracer_NilConfig(t *testing.T) {
	tp, err := NewTracer(nil, "test-service", "1.0.0")

	assert.Nil(t, tp)
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestNewTracer_Disabled(t *testing.T) {
	tp, err := NewTracer(&TracingConfig{Enabled: false}, "", "")

	require.NoError(t, err)
	assert.NotNil(t, tp)
	_ = tp.Shutdown(context.Background())
}

func TestNewTracer_EmptyServiceName(t *testing.T) {
	cfg := &TracingConfig{
		Enabled: true,
		OTLP:    &OTLPConfig{Endpoint: "localhost:4318"},
	}

	tp, err := NewTracer(cfg, "", "1.0.0")

	assert.Nil(t, tp)
	assert.ErrorIs(t, err, ErrEmptyServiceName)
}

func TestNewTracer_EmptyEndpoint(t *testing.T) {
	tests := []struct {
		name string
		otlp *OTLPConfig
	}{
		{"nil otlp", nil},
		{"empty endpoint", &OTLPConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, err := NewTracer(&TracingConfig{Enabled: true, OTLP: tt.otlp}, "svc", "1.0.0")

			assert.Nil(t, tp)
			assert.ErrorIs(t, err, ErrEmptyEndpoint)
		})
	}
}

func TestNewTracer_Success(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		rate     float64
	}{
		{"plain", "localhost:4318", 0.5},
		{"http prefix", "http://localhost:4318", 1},
		{"https prefix", "https://localhost:4318", 0},
		{"invalid rate", "localhost:4318", 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &TracingConfig{
				Enabled:      true,
				SamplingRate: tt.rate,
				OTLP: &OTLPConfig{
					Endpoint: tt.endpoint,
					Headers:  map[string]string{"Authorization": "Bearer token"},
				},
			}

			tp, err := NewTracer(cfg, "test-service", "1.0.0")

			require.NoError(t, err)
			assert.NotNil(t, tp)
			_ = tp.Shutdown(context.Background())
		})
	}
}

func TestMustNewTracer_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustNewTracer(nil, "test-service", "1.0.0")
	})
}

func TestContextWithSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	ctx = ContextWithSpan(ctx, span)

	assert.Equal(t, span.SpanContext().TraceID().String(), ctx.Value(logger.TraceIDKey))
	assert.Equal(t, span.SpanContext().SpanID().String(), ctx.Value(logger.SpanIDKey))
}

func TestContextWithSpan_NoopSpan(t *testing.T) {
	ctx := ContextWithSpan(context.Background(), trace.SpanFromContext(context.Background()))

	assert.Nil(t, ctx.Value(logger.TraceIDKey))
	assert.Nil(t, ctx.Value(logger.SpanIDKey))
}
