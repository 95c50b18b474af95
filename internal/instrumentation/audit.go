package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures everything about one tool invocation for audit logging.
// Both MCP tool calls and chat tool calls are recorded this way.
//
// # Privacy Considerations
//
// Summary is free text typed by the user. It is only written when the
// audit logger is configured with IncludeSummaries.
type ToolInvocation struct {
	// Tool name
	Tool string

	// Session is the chat session or MCP session identifier, if any.
	Session string

	// Calendar is the hashed calendar identity.
	Calendar string

	// Booking details
	Summary  string
	Interval string
	Outcome  string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for operational logging. Summaries are
// never included.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.Session != "" {
		attrs = append(attrs, slog.String("session", ti.Session))
	}
	if ti.Calendar != "" {
		attrs = append(attrs, slog.String("calendar", ti.Calendar))
	}
	if ti.Interval != "" {
		attrs = append(attrs, slog.String("interval", ti.Interval))
	}
	if ti.Outcome != "" {
		attrs = append(attrs, slog.String("outcome", ti.Outcome))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging, including
// the event summary and span ID.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ti.LogAttrs()
	if ti.Summary != "" {
		attrs = append(attrs, slog.String("summary", ti.Summary))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithSession sets the session identifier.
func (ti *ToolInvocation) WithSession(session string) *ToolInvocation {
	ti.Session = session
	return ti
}

// WithCalendar sets the hashed calendar identity.
func (ti *ToolInvocation) WithCalendar(calendarHash string) *ToolInvocation {
	ti.Calendar = calendarHash
	return ti
}

// WithBooking sets the booking summary and the requested interval.
func (ti *ToolInvocation) WithBooking(summary, interval string) *ToolInvocation {
	ti.Summary = summary
	ti.Interval = interval
	return ti
}

// WithOutcome sets the booking outcome.
func (ti *ToolInvocation) WithOutcome(outcome string) *ToolInvocation {
	ti.Outcome = outcome
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// AuditLogger provides structured audit logging for tool invocations.
type AuditLogger struct {
	logger           *slog.Logger
	includeSummaries bool
	enabled          bool
}

// NewAuditLogger creates an enabled AuditLogger that omits event summaries.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:  logger,
		enabled: true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:           logger,
		includeSummaries: config.IncludeSummaries,
		enabled:          config.Enabled,
	}
}

// SetIncludeSummaries sets whether event summaries are written.
func (al *AuditLogger) SetIncludeSummaries(include bool) {
	al.includeSummaries = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation logs a tool invocation. Failed invocations are logged
// at warn level.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includeSummaries {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
