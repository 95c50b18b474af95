package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		contains string
	}{
		{name: "json", format: FormatJSON, contains: `"msg":"hello"`},
		{name: "text", format: FormatText, contains: "msg=hello"},
		{name: "unknown falls back to text", format: "xml", contains: "msg=hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.format, false)
			logger.Info("hello")
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.contains)
			}
		})
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, FormatText, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message written without debug enabled: %q", buf.String())
	}

	New(&buf, FormatText, true).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug message missing with debug enabled: %q", buf.String())
	}
}

func TestWithHelpers(t *testing.T) {
	logger := slog.Default()
	if WithOperation(logger, "calendar.list") == nil {
		t.Error("WithOperation returned nil")
	}
	if WithTool(logger, "calendar_book_event") == nil {
		t.Error("WithTool returned nil")
	}
	if WithService(logger, "calendar") == nil {
		t.Error("WithService returned nil")
	}
	if WithSession(logger, "abc") == nil {
		t.Error("WithSession returned nil")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		name  string
		attr  slog.Attr
		key   string
		value string
	}{
		{"operation", Operation("insert"), KeyOperation, "insert"},
		{"service", Service("calendar"), KeyService, "calendar"},
		{"tool", Tool("calendar_check_availability"), KeyTool, "calendar_check_availability"},
		{"status", Status(StatusSuccess), KeyStatus, "success"},
		{"outcome", Outcome("conflict"), KeyOutcome, "conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("key = %q, want %q", tt.attr.Key, tt.key)
			}
			if tt.attr.Value.String() != tt.value {
				t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.value)
			}
		})
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("test error"))
	if attr.Key != KeyError {
		t.Errorf("Err key = %q, want %q", attr.Key, KeyError)
	}
	if attr.Value.String() != "test error" {
		t.Errorf("Err value = %q, want %q", attr.Value.String(), "test error")
	}

	// nil yields an empty group that slog omits
	attr = Err(nil)
	if attr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty string", attr.Key)
	}
}

func TestHashCalendarID(t *testing.T) {
	if HashCalendarID("") != "" {
		t.Error("empty calendar ID should hash to empty string")
	}

	id := "e699a00a92f6@group.calendar.google.com"
	h1 := HashCalendarID(id)
	h2 := HashCalendarID(id)
	if h1 != h2 {
		t.Error("HashCalendarID should be deterministic")
	}
	if !strings.HasPrefix(h1, "cal:") || len(h1) != 20 {
		t.Errorf("unexpected hash format %q", h1)
	}
	if strings.Contains(h1, "group.calendar") {
		t.Error("hash leaks the calendar ID")
	}

	attr := CalendarHash(id)
	if attr.Key != KeyCalendarHash || attr.Value.String() != h1 {
		t.Errorf("CalendarHash = %v, want %s=%s", attr, KeyCalendarHash, h1)
	}
}

func TestSanitizeSecret(t *testing.T) {
	tests := []struct {
		secret   string
		expected string
	}{
		{"", "<empty>"},
		{"abc123", "[secret:6 chars]"},
		{"sk-a_very_long_key_value", "[secret:24 chars]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := SanitizeSecret(tt.secret); got != tt.expected {
				t.Errorf("SanitizeSecret(%q) = %q, want %q", tt.secret, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"book a slot", 50, "book a slot"},
		{"book a slot tomorrow", 4, "book..."},
		{"anything", 0, ""},
		{"héllo wörld", 5, "héllo..."},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
