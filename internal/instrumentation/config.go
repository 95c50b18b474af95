package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes the slotkeeper-specific instrumentation variables.
// The standard OTEL_* variables are read unprefixed.
const EnvPrefix = "SLOTKEEPER_"

// Config holds the OpenTelemetry settings shared by serve and chat.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// InstanceID defaults to the hostname.
	InstanceID string

	// Enabled turns metrics and tracing on. When false, NewProvider
	// returns a provider whose Metrics is a no-op recorder.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string
	// ExportInterval applies to the push exporters (otlp, stdout).
	ExportInterval time.Duration

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter   string
	TraceSamplingRate float64

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string
	OTLPInsecure bool

	// DetailedLabels adds the hashed calendar identity to calendar metrics.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the tool invocation audit log.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludeSummaries writes event summaries to the audit log. Summaries
	// are user text and are omitted unless asked for.
	IncludeSummaries bool
}

// DefaultConfig reads the configuration from the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       getEnvOrDefault("OTEL_SERVICE_NAME", "slotkeeper"),
		ServiceVersion:    "unknown",
		InstanceID:        getEnvOrDefault("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:           getEnvBoolOrDefault(EnvPrefix+"INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   getEnvOrDefault(EnvPrefix+"METRICS_EXPORTER", ExporterPrometheus),
		ExportInterval:    getEnvDurationOrDefault(EnvPrefix+"METRICS_INTERVAL", DefaultMetricInterval),
		TracingExporter:   getEnvOrDefault(EnvPrefix+"TRACING_EXPORTER", ExporterNone),
		TraceSamplingRate: getEnvFloatOrDefault("OTEL_TRACES_SAMPLER_ARG", 0.1),
		OTLPEndpoint:      getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		DetailedLabels:    getEnvBoolOrDefault(EnvPrefix+"METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:          getEnvBoolOrDefault(EnvPrefix+"AUDIT_LOGGING", true),
			IncludeSummaries: getEnvBoolOrDefault(EnvPrefix+"AUDIT_INCLUDE_SUMMARIES", false),
		},
	}
}

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter; set OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	if c.ExportInterval < 0 {
		return fmt.Errorf("metrics export interval must not be negative, got %s", c.ExportInterval)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	parsed, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	parsed, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	parsed, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	// Backend service names
	ServiceCalendar = "calendar"
	ServiceLLM      = "llm"
	ServiceLock     = "lock"

	// Booking outcomes
	OutcomeBooked   = "booked"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// DefaultMetricInterval is the push interval of the otlp and stdout
	// metrics exporters.
	DefaultMetricInterval = 10 * time.Second
)
