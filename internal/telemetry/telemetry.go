// Package telemetry wires per-operation tracing ("metrics
// export" is an external-collaborator interface only; tracing is the
// ambient concern the teacher's own stack carries everywhere) across
// otel/otel/sdk/otel/trace plus a single OTLP exporter.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/moltislabs/moltis/internal/config"
	"github.com/moltislabs/moltis/internal/logging"
)

var log = logging.NewComponentLogger("Telemetry")

const tracerScope = "moltis.gateway"

// Init configures the global TracerProvider from cfg and returns a shutdown
// func to call on graceful exit. When cfg.Enabled is false (the default for
// a self-hosted instance with no collector), it installs nothing and the
// returned shutdown is a no-op — otel.Tracer calls fall back to the no-op
// global tracer rather than failing.
func Init(ctx context.Context, cfg config.TelemetryConfig) (func(context.Context) error, error) {
	if !cfg.Enabled || cfg.OTLPEndpoint == "" {
		log.Info("tracing disabled (no otlp_endpoint configured)")
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, fmt.Errorf("telemetry: create otlp exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "moltis-gateway"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 {
		ratio = 1.0
	}
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("tracing initialized, endpoint=%s service=%s", cfg.OTLPEndpoint, serviceName)
	return tp.Shutdown, nil
}

// Tracer returns the gateway's single tracer scope.
func Tracer() trace.Tracer { return otel.Tracer(tracerScope) }
