package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrOutcome   = "outcome"
	attrTool      = "tool"
	attrCalendar  = "calendar"
	attrModel     = "model"
	attrResult    = "result"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	// Calendar gateway metrics
	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	// Booking metrics
	bookingOutcomesTotal metric.Int64Counter
	slotLockTotal        metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// LLM metrics
	llmRequestsTotal   metric.Int64Counter
	llmRequestDuration metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.activeSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of active chat sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}

	// Calendar Metrics
	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_operations_total",
		metric.WithDescription("Total number of calendar gateway operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_operation_duration_seconds",
		metric.WithDescription("Calendar gateway operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_operation_duration_seconds histogram: %w", err)
	}

	// Booking Metrics
	m.bookingOutcomesTotal, err = meter.Int64Counter(
		"booking_outcomes_total",
		metric.WithDescription("Total number of booking attempts by terminal outcome"),
		metric.WithUnit("{booking}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking_outcomes_total counter: %w", err)
	}

	m.slotLockTotal, err = meter.Int64Counter(
		"slot_lock_acquisitions_total",
		metric.WithDescription("Total number of slot lock acquisition attempts by result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot_lock_acquisitions_total counter: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	// LLM Metrics
	m.llmRequestsTotal, err = meter.Int64Counter(
		"llm_requests_total",
		metric.WithDescription("Total number of chat completion requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_requests_total counter: %w", err)
	}

	m.llmRequestDuration, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("Chat completion request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_request_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCalendarOperation records a calendar gateway call.
//
// Parameters:
//   - operation: gateway operation (list, insert, conditional_insert)
//   - status: "success" or "error"
//   - calendarHash: hashed calendar identity, only attached when detailed labels are on
//   - duration: time taken for the call
func (m *Metrics) RecordCalendarOperation(ctx context.Context, operation, status, calendarHash string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil || m.calendarOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, ServiceCalendar),
		attribute.String(attrOperation, NormalizeOperation(operation)),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && calendarHash != "" {
		attrs = append(attrs, attribute.String(attrCalendar, calendarHash))
	}

	m.calendarOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordBookingOutcome records the terminal state of a booking attempt.
// Outcome should be one of: "booked", "conflict", "rejected", "failed".
func (m *Metrics) RecordBookingOutcome(ctx context.Context, outcome string) {
	if m == nil || m.bookingOutcomesTotal == nil {
		return // Instrumentation not initialized
	}

	m.bookingOutcomesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOutcome, NormalizeOutcome(outcome)),
	))
}

// RecordSlotLock records a slot lock acquisition attempt.
// Result should be one of: "acquired", "contended", "error".
func (m *Metrics) RecordSlotLock(ctx context.Context, result string) {
	if m == nil || m.slotLockTotal == nil {
		return // Instrumentation not initialized
	}

	m.slotLockTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrService, ServiceLock),
		attribute.String(attrResult, result),
	))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordLLMRequest records a chat completion request to the language model.
func (m *Metrics) RecordLLMRequest(ctx context.Context, model, status string, duration time.Duration) {
	if m == nil || m.llmRequestsTotal == nil || m.llmRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, ServiceLLM),
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	}

	m.llmRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.llmRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementActiveSessions increments the active sessions counter.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return // Instrumentation not initialized
	}

	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions counter.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return // Instrumentation not initialized
	}

	m.activeSessions.Add(ctx, -1)
}
