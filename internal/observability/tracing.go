// Package observability wires OTLP trace export into the process.
//
// Traces are exported over OTLP HTTP to a local collector endpoint. The
// collector handles authentication and forwarding, so no credentials pass
// through the application.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/pathwise/pathwise/internal/config"
	"github.com/pathwise/pathwise/internal/log"
)

// DefaultEndpoint is the default OTLP HTTP collector endpoint.
const DefaultEndpoint = "localhost:4318"

// Setup registers a global tracer provider exporting to the configured OTLP
// endpoint and returns a shutdown function that flushes pending spans.
//
// When telemetry is disabled the returned shutdown is a no-op. An exporter
// construction failure disables tracing with a warning instead of failing
// startup: the service is usable without a collector.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger log.Logger) (func(context.Context) error, error) {
	nop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return nop, nil
	}

	endpoint := cfg.OTLPEndpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return nop, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.Environment),
	))
	if err != nil {
		return nop, fmt.Errorf("build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
	)
	return provider.Shutdown, nil
}
