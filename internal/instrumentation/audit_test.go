package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

const (
	testToolBook  = "calendar_book_event"
	testToolCheck = "calendar_check_availability"
	testCalendar  = "cal:0123456789abcdef"
	testSummary   = "Dentist appointment"
	testInterval  = "2025-07-03T15:00:00+05:30/2025-07-03T15:30:00+05:30"
)

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testToolCheck)

	if ti.Tool != testToolCheck {
		t.Errorf("Tool = %q, want %q", ti.Tool, testToolCheck)
	}
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ti.CompleteSuccess()

	if !ti.Success {
		t.Error("Success should be true")
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusSuccess)
	}
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation(testToolBook).CompleteWithError(errors.New("calendar unavailable"))

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Error != "calendar unavailable" {
		t.Errorf("Error = %q, want %q", ti.Error, "calendar unavailable")
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ti.Status(), StatusError)
	}
}

func TestToolInvocation_LogAttrsOmitSummary(t *testing.T) {
	ti := NewToolInvocation(testToolBook).
		WithSession("session-1").
		WithCalendar(testCalendar).
		WithBooking(testSummary, testInterval).
		WithOutcome(OutcomeBooked).
		CompleteSuccess()

	keys := attrKeys(ti.LogAttrs())
	for _, want := range []string{"tool", "duration", "success", "session", "calendar", "interval", "outcome"} {
		if !keys[want] {
			t.Errorf("LogAttrs missing %q", want)
		}
	}
	if keys["summary"] {
		t.Error("LogAttrs must not contain the summary")
	}

	if !attrKeys(ti.LogAuditAttrs())["summary"] {
		t.Error("LogAuditAttrs should contain the summary")
	}
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation(testToolCheck).WithSpanContext(context.Background())

	if ti.TraceID != "" || ti.SpanID != "" {
		t.Errorf("expected empty trace context, got %q/%q", ti.TraceID, ti.SpanID)
	}
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	tests := []struct {
		name             string
		includeSummaries bool
		success          bool
		wantLevel        string
		wantMsg          string
		wantSummary      bool
	}{
		{"success without summary", false, true, "INFO", "tool_executed", false},
		{"failure without summary", false, false, "WARN", "tool_failed", false},
		{"success with summary", true, true, "INFO", "tool_executed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			al := NewAuditLoggerWithConfig(logger, AuditLoggingConfig{
				Enabled:          true,
				IncludeSummaries: tt.includeSummaries,
			})

			ti := NewToolInvocation(testToolBook).WithBooking(testSummary, testInterval)
			ti.Complete(tt.success, nil)
			al.LogToolInvocation(ti)

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid log output %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["msg"] != tt.wantMsg {
				t.Errorf("msg = %v, want %s", entry["msg"], tt.wantMsg)
			}
			if _, ok := entry["summary"]; ok != tt.wantSummary {
				t.Errorf("summary present = %v, want %v", ok, tt.wantSummary)
			}
		})
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	al.SetEnabled(false)

	al.LogToolInvocation(NewToolInvocation(testToolCheck).CompleteSuccess())

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestAuditLogger_SetIncludeSummaries(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	al.SetIncludeSummaries(true)

	al.LogToolInvocation(NewToolInvocation(testToolBook).WithBooking(testSummary, "").CompleteSuccess())

	if !strings.Contains(buf.String(), testSummary) {
		t.Errorf("expected summary in output, got %q", buf.String())
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var al *AuditLogger
	al.LogToolInvocation(NewToolInvocation(testToolCheck))
}

func attrKeys(attrs []slog.Attr) map[string]bool {
	keys := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		keys[a.Key] = true
	}
	return keys
}
