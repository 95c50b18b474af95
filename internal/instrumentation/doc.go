// Package instrumentation provides OpenTelemetry instrumentation for slotkeeper.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//   - active_sessions: Gauge of active chat sessions
//
// Calendar Metrics:
//   - calendar_operations_total: Counter of gateway calls by operation and status
//   - calendar_operation_duration_seconds: Histogram of gateway call durations
//
// Booking Metrics:
//   - booking_outcomes_total: Counter of booking attempts by outcome
//     (booked, conflict, rejected, failed)
//   - slot_lock_acquisitions_total: Counter of slot lock attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of tool execution durations
//
// LLM Metrics:
//   - llm_requests_total: Counter of chat completion requests by model and status
//   - llm_request_duration_seconds: Histogram of chat completion durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>), calendar gateway
// calls (calendar.<operation>) and chat completions (llm.chat_completion).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - SLOTKEEPER_INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - SLOTKEEPER_METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - SLOTKEEPER_METRICS_INTERVAL: push interval for otlp and stdout (default: 10s)
//   - SLOTKEEPER_TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - SLOTKEEPER_METRICS_DETAILED_LABELS: add the hashed calendar label (default: false)
//   - SLOTKEEPER_AUDIT_LOGGING, SLOTKEEPER_AUDIT_INCLUDE_SUMMARIES: audit log switches
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: slotkeeper)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordBookingOutcome(ctx, instrumentation.OutcomeBooked)
package instrumentation
