package telemetry

import (
	"os"
	"testing"
	"time"
)

// unsetEnv clears key for the duration of the test, restoring any prior
// value afterwards. t.Setenv cannot express "not set", and an empty string
// is a present value to os.LookupEnv.
func unsetEnv(t *testing.T, key string) {
	t.Helper()

	if prev, ok := os.LookupEnv(key); ok {
		t.Cleanup(func() { _ = os.Setenv(key, prev) })
	}

	_ = os.Unsetenv(key)
}

func clearOtelEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"OTEL_ENABLED",
		"OTEL_SERVICE_NAME",
		"OTEL_SERVICE_VERSION",
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
		"OTEL_EXPORTER_OTLP_TRACES_TIMEOUT",
		"KUBERNETES_SERVICE_HOST",
	} {
		unsetEnv(t, key)
	}
}

// Setenv forbids t.Parallel, so these tests run serially.

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	clearOtelEnv(t)

	config, err := LoadConfigFromEnv(t.Context(), "test")
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	if config.Enabled {
		t.Error("tracing must default to disabled")
	}

	if config.ServiceName != defaultServiceName {
		t.Errorf("expected service name %q, got %q", defaultServiceName, config.ServiceName)
	}

	if config.ServiceVersion != defaultServiceVersion {
		t.Errorf("expected service version %q, got %q", defaultServiceVersion, config.ServiceVersion)
	}

	if config.Timeout != defaultTimeout {
		t.Errorf("expected timeout %v, got %v", defaultTimeout, config.Timeout)
	}

	if config.Endpoint != "" {
		t.Errorf("expected empty endpoint outside Kubernetes, got %q", config.Endpoint)
	}

	if config.Environment != "test" {
		t.Errorf("expected environment test, got %q", config.Environment)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	clearOtelEnv(t)
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SERVICE_NAME", "review-service")
	t.Setenv("OTEL_SERVICE_VERSION", "2.3.4")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_TIMEOUT", "10s")

	config, err := LoadConfigFromEnv(t.Context(), "prod")
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	if !config.Enabled {
		t.Error("expected tracing enabled")
	}

	if config.ServiceName != "review-service" {
		t.Errorf("expected service name review-service, got %q", config.ServiceName)
	}

	if config.ServiceVersion != "2.3.4" {
		t.Errorf("expected service version 2.3.4, got %q", config.ServiceVersion)
	}

	if config.Endpoint != "http://collector:4318" {
		t.Errorf("expected explicit endpoint, got %q", config.Endpoint)
	}

	if config.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", config.Timeout)
	}
}

func TestLoadConfigFromEnv_KubernetesEndpointDefault(t *testing.T) {
	clearOtelEnv(t)
	t.Setenv("KUBERNETES_SERVICE_HOST", "10.0.0.1")

	config, err := LoadConfigFromEnv(t.Context(), "dev")
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	want := "http://opentelemetry-collector.opentelemetry.svc.cluster.local:4318"
	if config.Endpoint != want {
		t.Errorf("expected cluster collector endpoint, got %q", config.Endpoint)
	}

	// An explicit endpoint wins over the cluster default.
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://custom-collector:4318")

	config, err = LoadConfigFromEnv(t.Context(), "dev")
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}

	if config.Endpoint != "http://custom-collector:4318" {
		t.Errorf("expected custom endpoint, got %q", config.Endpoint)
	}
}

func TestInitialize_DisabledIsNoOp(t *testing.T) {
	if err := Initialize(t.Context(), &Config{Enabled: false}); err != nil {
		t.Fatalf("disabled initialize must not fail: %v", err)
	}
}

func TestInitialize_MissingEndpointIsNoOp(t *testing.T) {
	if err := Initialize(t.Context(), &Config{Enabled: true}); err != nil {
		t.Fatalf("initialize without an endpoint must not fail: %v", err)
	}
}

func TestShutdown_WithoutInitialize(t *testing.T) {
	if err := Shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown without initialize must not fail: %v", err)
	}
}
