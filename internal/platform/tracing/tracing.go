package tracing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config selects the collector and names the service in exported spans.
type Config struct {
	// Endpoint is host:port or a URL. Empty disables export.
	Endpoint    string
	ServiceName string
	Version     string
}

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs a global tracer provider exporting to cfg.Endpoint and the
// W3C trace-context propagator. With an empty endpoint nothing is installed
// and the returned ShutdownFunc is a no-op.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.Endpoint == "" {
		return noopShutdown, nil
	}

	exporter, err := otlptracegrpc.New(ctx, endpointOptions(cfg.Endpoint)...)
	if err != nil {
		return noopShutdown, fmt.Errorf("create otlp exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// endpointOptions accepts both "host:port" (plaintext) and full URLs, where
// an http scheme selects plaintext and https selects TLS.
func endpointOptions(endpoint string) []otlptracegrpc.Option {
	if strings.Contains(endpoint, "://") {
		return []otlptracegrpc.Option{otlptracegrpc.WithEndpointURL(endpoint)}
	}
	return []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	}
}

// Middleware starts a server span for each request, continuing any trace
// the client propagated.
func Middleware(service string, opts ...otelhttp.Option) func(http.Handler) http.Handler {
	return otelhttp.NewMiddleware(service, opts...)
}
