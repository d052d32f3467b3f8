package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tsukikage7/taskscheduler/logger"
)

// NewTracer 创建新的链路追踪器.
//
// 未启用时返回不导出任何数据的 TracerProvider.
// 启用时通过 OTLP/HTTP 导出，并设置为全局 TracerProvider.
func NewTracer(cfg *TracingConfig, serviceName, serviceVersion string) (*sdktrace.TracerProvider, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if !cfg.Enabled {
		return sdktrace.NewTracerProvider(), nil
	}

	if serviceName == "" {
		return nil, ErrEmptyServiceName
	}

	if cfg.OTLP == nil || cfg.OTLP.Endpoint == "" {
		return nil, ErrEmptyEndpoint
	}

	// 处理endpoint URL，移除协议前缀
	endpoint := cfg.OTLP.Endpoint
	secure := cfg.OTLP.Secure
	if after, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint = after
	}
	if after, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint = after
		secure = true
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if !secure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.OTLP.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.OTLP.Headers))
	}

	exp, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateExporter, err)
	}

	// 采样率默认 100%
	samplingRate := cfg.SamplingRate
	if samplingRate <= 0 || samplingRate > 1 {
		samplingRate = 1.0
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(samplingRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// MustNewTracer 创建链路追踪器，失败时 panic.
func MustNewTracer(cfg *TracingConfig, serviceName, serviceVersion string) *sdktrace.TracerProvider {
	tp, err := NewTracer(cfg, serviceName, serviceVersion)
	if err != nil {
		panic(err)
	}
	return tp
}

// ContextWithSpan 将 span 的 traceId/spanId 注入 context，供 logger.WithContext 使用.
func ContextWithSpan(ctx context.Context, span trace.Span) context.Context {
	spanCtx := span.SpanContext()
	if spanCtx.HasTraceID() {
		ctx = logger.ContextWithTraceID(ctx, spanCtx.TraceID().String())
	}
	if spanCtx.HasSpanID() {
		ctx = logger.ContextWithSpanID(ctx, spanCtx.SpanID().String())
	}
	return ctx
}
