package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Provider owns the meter and tracer providers behind the Metrics
// recorder that the calendar gateway, the booking orchestrator, the MCP
// tools and the chat assistant share.
type Provider struct {
	cfg     Config
	meters  *metric.MeterProvider
	tracers *sdktrace.TracerProvider
	metrics *Metrics
}

// Option adjusts NewProvider.
type Option func(*providerOptions)

type providerOptions struct {
	reader    metric.Reader
	setGlobal bool
}

// WithReader records metrics into reader instead of the configured
// exporter.
func WithReader(reader metric.Reader) Option {
	return func(o *providerOptions) { o.reader = reader }
}

// WithoutGlobal leaves the otel global meter and tracer providers alone.
// Spans started through the package helpers then go to the previous
// global provider.
func WithoutGlobal() Option {
	return func(o *providerOptions) { o.setGlobal = false }
}

// NewProvider builds the providers for cfg. A disabled config yields a
// provider with a no-op Metrics recorder and no exporters.
func NewProvider(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{cfg: cfg, metrics: &Metrics{}}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := providerOptions{setGlobal: true}
	for _, opt := range opts {
		opt(&o)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reader := o.reader
	if reader == nil {
		if reader, err = newMetricReader(ctx, cfg); err != nil {
			return nil, err
		}
	}

	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, reader.Shutdown(ctx))
	}

	p := &Provider{
		cfg:     cfg,
		meters:  metric.NewMeterProvider(metric.WithResource(res), metric.WithReader(reader)),
		tracers: newTracerProvider(res, exporter, cfg.TraceSamplingRate),
	}

	p.metrics, err = NewMetrics(p.meters.Meter(cfg.ServiceName), cfg.DetailedLabels)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create metrics recorder: %w", err), p.Shutdown(ctx))
	}

	if o.setGlobal {
		otel.SetMeterProvider(p.meters)
		otel.SetTracerProvider(p.tracers)
	}

	return p, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	instance := cfg.InstanceID
	if instance == "" {
		instance, _ = os.Hostname()
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.ServiceInstanceID(instance),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

func newMetricReader(ctx context.Context, cfg Config) (metric.Reader, error) {
	interval := metric.WithInterval(cfg.ExportInterval)
	if cfg.ExportInterval == 0 {
		interval = metric.WithInterval(DefaultMetricInterval)
	}

	switch cfg.MetricsExporter {
	case "", ExporterPrometheus:
		// Registers with the default prometheus registry served by promhttp.
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		return exporter, nil

	case ExporterOTLP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter, interval), nil

	case ExporterStdout:
		slog.Warn("stdout metrics exporter is meant for debugging",
			slog.String("component", "instrumentation"))
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout metrics exporter: %w", err)
		}
		return metric.NewPeriodicReader(exporter, interval), nil

	default:
		return nil, fmt.Errorf("unsupported metrics exporter: %s", cfg.MetricsExporter)
	}
}

// newSpanExporter returns nil when tracing is off.
func newSpanExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.TracingExporter {
	case "", ExporterNone:
		return nil, nil

	case ExporterOTLP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			// spans carry hashed calendar ids and intervals
			slog.Warn("OTLP trace export without TLS",
				slog.String("component", "instrumentation"),
				slog.String("endpoint", cfg.OTLPEndpoint))
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}
		return exporter, nil

	case ExporterStdout:
		exporter, err := stdouttrace.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		return exporter, nil

	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.TracingExporter)
	}
}

func newTracerProvider(res *resource.Resource, exporter sdktrace.SpanExporter, rate float64) *sdktrace.TracerProvider {
	if exporter == nil {
		return sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.NeverSample()),
		)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	)
}

// Metrics returns the recorder. It is never nil.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Tracer returns a tracer, or a no-op tracer when disabled.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tracers == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return p.tracers.Tracer(name)
}

// AuditLogger returns the audit logger for cfg, or nil when audit logging
// is off.
func (p *Provider) AuditLogger(logger *slog.Logger) *AuditLogger {
	if !p.cfg.AuditLogging.Enabled {
		return nil
	}
	return NewAuditLoggerWithConfig(logger, p.cfg.AuditLogging)
}

// Shutdown flushes pending telemetry.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.meters != nil {
		if err := p.meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	if p.tracers != nil {
		if err := p.tracers.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Enabled reports whether metrics and tracing are recorded.
func (p *Provider) Enabled() bool {
	return p.cfg.Enabled
}
