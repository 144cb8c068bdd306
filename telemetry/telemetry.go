// Package telemetry bootstraps OpenTelemetry tracing for programs that embed
// the workflow kernel. The kernel packages create spans through otel.Tracer
// and work with or without a configured provider; embedders that want the
// spans exported call Initialize once at startup and Shutdown on exit.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/amp-labs/amp-workflow/envutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceName    = "amp-workflow"
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second

	// clusterCollectorEndpoint is the in-cluster collector service used when
	// no explicit endpoint is configured and the process runs in Kubernetes.
	clusterCollectorEndpoint = "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"
)

var tracerProvider *sdktrace.TracerProvider

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Enabled        bool
	Timeout        time.Duration
}

// LoadConfigFromEnv assembles the tracing configuration from OTEL_*
// environment variables. Tracing defaults to disabled; inside Kubernetes the
// endpoint defaults to the in-cluster collector unless overridden.
func LoadConfigFromEnv(ctx context.Context, runningEnv string) (*Config, error) {
	enabled := envutil.Bool("OTEL_ENABLED",
		envutil.Default(false)).
		ValueOrElse(false)

	svcName, err := envutil.String("OTEL_SERVICE_NAME", envutil.Default(defaultServiceName)).Value()
	if err != nil {
		return nil, err
	}

	svcVersion, err := envutil.String("OTEL_SERVICE_VERSION",
		envutil.Default(defaultServiceVersion)).
		Value()
	if err != nil {
		return nil, err
	}

	endpoint, err := envutil.String("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		envutil.Default(defaultEndpoint())).
		Value()
	if err != nil {
		return nil, err
	}

	timeout, err := envutil.Duration("OTEL_EXPORTER_OTLP_TRACES_TIMEOUT",
		envutil.Default(defaultTimeout)).
		Value()
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "OpenTelemetry configuration loaded",
		"service", svcName,
		"enabled", enabled,
		"endpoint", endpoint,
	)

	return &Config{
		ServiceName:    svcName,
		ServiceVersion: svcVersion,
		Environment:    runningEnv,
		Endpoint:       endpoint,
		Enabled:        enabled,
		Timeout:        timeout,
	}, nil
}

// defaultEndpoint returns the endpoint to use when none is configured:
// the in-cluster collector when running under Kubernetes, otherwise empty.
func defaultEndpoint() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return clusterCollectorEndpoint
	}

	return ""
}

// Initialize installs a global tracer provider exporting over OTLP/HTTP.
// Disabled or endpoint-less configurations are a logged no-op, so callers
// can Initialize unconditionally.
func Initialize(ctx context.Context, config *Config) error {
	switch {
	case !config.Enabled:
		slog.Info("OpenTelemetry tracing is disabled")

		return nil
	case config.Endpoint == "":
		slog.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return nil
	}

	provider, err := buildProvider(ctx, config)
	if err != nil {
		return err
	}

	tracerProvider = provider

	otel.SetTracerProvider(provider)

	// W3C trace context plus baggage, so spans join traces started upstream.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
	)

	return nil
}

// buildProvider assembles the batching tracer provider: service identity as
// the resource, OTLP/HTTP as the exporter, always-on sampling.
func buildProvider(ctx context.Context, config *Config) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(config.ServiceName),
		semconv.ServiceVersionKey.String(config.ServiceVersion),
		semconv.DeploymentEnvironmentKey.String(config.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("building OTLP trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

// Shutdown flushes and stops the tracer provider installed by Initialize.
// Safe to call when Initialize never installed one.
func Shutdown(ctx context.Context) error {
	if tracerProvider == nil {
		return nil
	}

	slog.Info("Shutting down OpenTelemetry tracer provider")

	return tracerProvider.Shutdown(ctx)
}
