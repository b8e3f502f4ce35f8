// Package tracing provides OpenTelemetry tracing for exchange routing.
// It installs a global tracer provider and exposes a RouteTracer that wraps
// one routed exchange in a span. Until Init is called every span is a no-op,
// so the allocation core and its tests never pay for tracing they did not
// ask for.
package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "relay"

var (
	mu     sync.RWMutex
	tracer trace.Tracer
)

// Config contains tracing configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRate   float64
	Exporter       string // "stdout"
	BatchTimeout   time.Duration
}

// DefaultConfig returns a development-friendly tracing configuration with
// the stdout exporter and full sampling.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "relay",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SamplingRate:   1.0,
		Exporter:       "stdout",
		BatchTimeout:   5 * time.Second,
	}
}

// Init sets up the global tracer provider from the given configuration.
func Init(cfg Config) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "", "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return fmt.Errorf("unsupported trace exporter %q", cfg.Exporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	mu.Lock()
	tracer = tp.Tracer(tracerName)
	mu.Unlock()
	return nil
}

// SetTracerProvider points the package at the given provider without
// touching the process-global one. Tests use it to capture spans in memory.
func SetTracerProvider(tp trace.TracerProvider) {
	mu.Lock()
	tracer = tp.Tracer(tracerName)
	mu.Unlock()
}

func getTracer() trace.Tracer {
	mu.RLock()
	t := tracer
	mu.RUnlock()
	if t != nil {
		return t
	}
	return otel.Tracer(tracerName)
}

// Shutdown flushes pending spans and stops the installed tracer provider.
func Shutdown(ctx context.Context) error {
	if tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider); ok {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown tracer: %w", err)
		}
	}
	return nil
}

// StartSpan starts a span for the given operation.
func StartSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return getTracer().Start(ctx, operation)
}

// RouteTracer traces exchanges routed on behalf of one consumer.
type RouteTracer struct {
	consumerID string
	spanName   string
}

// NewRouteTracer creates a tracer for the given consumer.
func NewRouteTracer(consumerID string) *RouteTracer {
	return &RouteTracer{
		consumerID: consumerID,
		spanName:   fmt.Sprintf("route.%s.process", consumerID),
	}
}

// TraceExchange runs fn inside a span covering one routed exchange. The
// error returned by fn is recorded on the span and passed through unchanged.
func (rt *RouteTracer) TraceExchange(ctx context.Context, exchangeID string, fn func(ctx context.Context) error) error {
	ctx, span := StartSpan(ctx, rt.spanName)
	defer span.End()

	span.SetAttributes(
		attribute.String("relay.consumer", rt.consumerID),
		attribute.String("relay.exchange_id", exchangeID),
	)

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
