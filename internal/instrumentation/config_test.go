package instrumentation

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	for _, key := range []string{"OTEL_SERVICE_NAME", "SLOTKEEPER_INSTRUMENTATION_ENABLED", "SLOTKEEPER_METRICS_EXPORTER", "SLOTKEEPER_METRICS_INTERVAL", "SLOTKEEPER_TRACING_EXPORTER", "SLOTKEEPER_AUDIT_INCLUDE_SUMMARIES", "OTEL_TRACES_SAMPLER_ARG"} {
		t.Setenv(key, "")
	}

	config := DefaultConfig()

	if config.ServiceName != "slotkeeper" {
		t.Errorf("expected ServiceName 'slotkeeper', got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected Enabled to be true by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected MetricsExporter 'prometheus', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter 'none', got %q", config.TracingExporter)
	}
	if config.TraceSamplingRate != 0.1 {
		t.Errorf("expected TraceSamplingRate 0.1, got %f", config.TraceSamplingRate)
	}
	if config.ExportInterval != DefaultMetricInterval {
		t.Errorf("expected ExportInterval %s, got %s", DefaultMetricInterval, config.ExportInterval)
	}
	if !config.AuditLogging.Enabled || config.AuditLogging.IncludeSummaries {
		t.Errorf("unexpected audit defaults: %+v", config.AuditLogging)
	}
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "test-service")
	t.Setenv("SLOTKEEPER_INSTRUMENTATION_ENABLED", "false")
	t.Setenv("SLOTKEEPER_METRICS_EXPORTER", "stdout")
	t.Setenv("SLOTKEEPER_METRICS_INTERVAL", "30s")
	t.Setenv("SLOTKEEPER_TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("SLOTKEEPER_AUDIT_INCLUDE_SUMMARIES", "true")

	config := DefaultConfig()

	if config.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %q", config.ServiceName)
	}
	if config.Enabled {
		t.Error("expected Enabled to be false")
	}
	if config.MetricsExporter != ExporterStdout {
		t.Errorf("expected MetricsExporter 'stdout', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterStdout {
		t.Errorf("expected TracingExporter 'stdout', got %q", config.TracingExporter)
	}
	if config.ExportInterval != 30*time.Second {
		t.Errorf("expected ExportInterval 30s, got %s", config.ExportInterval)
	}
	if config.TraceSamplingRate != 0.5 {
		t.Errorf("expected TraceSamplingRate 0.5, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.IncludeSummaries {
		t.Error("expected IncludeSummaries to be true")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name: "valid config with prometheus",
			config: Config{
				MetricsExporter: ExporterPrometheus,
				TracingExporter: ExporterNone,
			},
		},
		{
			name: "valid config with otlp",
			config: Config{
				MetricsExporter: ExporterPrometheus,
				TracingExporter: ExporterOTLP,
				OTLPEndpoint:    "localhost:4318",
			},
		},
		{
			name:        "sampling rate below zero",
			config:      Config{TraceSamplingRate: -0.5},
			errContains: "sampling rate",
		},
		{
			name:        "sampling rate above one",
			config:      Config{TraceSamplingRate: 1.5},
			errContains: "sampling rate",
		},
		{
			name:        "invalid metrics exporter",
			config:      Config{MetricsExporter: "invalid"},
			errContains: "invalid metrics exporter",
		},
		{
			name:        "invalid tracing exporter",
			config:      Config{TracingExporter: "invalid"},
			errContains: "invalid tracing exporter",
		},
		{
			name:        "otlp tracing without endpoint",
			config:      Config{TracingExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
		{
			name:        "otlp metrics without endpoint",
			config:      Config{MetricsExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
		{
			name:        "negative export interval",
			config:      Config{ExportInterval: -time.Second},
			errContains: "export interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("expected error containing %q, got %v", tt.errContains, err)
			}
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_INVALID", "not_a_bool")
	t.Setenv("TEST_FLOAT", "0.75")
	t.Setenv("TEST_FLOAT_INVALID", "not_a_float")

	if v := getEnvOrDefault("TEST_VAR", "default"); v != "test_value" {
		t.Errorf("expected 'test_value', got %q", v)
	}
	if v := getEnvOrDefault("SLOTKEEPER_NONEXISTENT", "default"); v != "default" {
		t.Errorf("expected 'default', got %q", v)
	}
	if !getEnvBoolOrDefault("TEST_BOOL", false) {
		t.Error("expected true")
	}
	if !getEnvBoolOrDefault("TEST_BOOL_INVALID", true) {
		t.Error("expected default for invalid bool")
	}
	if v := getEnvFloatOrDefault("TEST_FLOAT", 0.5); v != 0.75 {
		t.Errorf("expected 0.75, got %f", v)
	}
	if v := getEnvFloatOrDefault("TEST_FLOAT_INVALID", 0.5); v != 0.5 {
		t.Errorf("expected default 0.5, got %f", v)
	}
	if v := getEnvDurationOrDefault("TEST_VAR", time.Second); v != time.Second {
		t.Errorf("expected default 1s, got %s", v)
	}
}
