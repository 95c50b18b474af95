package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation    = "operation"
	KeyService      = "service"
	KeyCalendarHash = "calendar_hash"
	KeyDuration     = "duration"
	KeyStatus       = "status"
	KeyOutcome      = "outcome"
	KeyError        = "error"
	KeyTool         = "tool"
	KeySession      = "session"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds a slog.Logger writing to w. Unknown formats fall back to text.
func New(w io.Writer, format string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

// WithSession returns a logger tagged with a chat session ID.
func WithSession(logger *slog.Logger, session string) *slog.Logger {
	return logger.With(slog.String(KeySession, session))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Service returns a slog attribute for the service name.
func Service(svc string) slog.Attr {
	return slog.String(KeyService, svc)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Outcome returns a slog attribute for a booking outcome kind.
func Outcome(outcome string) slog.Attr {
	return slog.String(KeyOutcome, outcome)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// HashCalendarID returns a short stable hash of a calendar identity.
// Shared calendars are addressed by long e-mail like IDs that should not end
// up in log aggregation.
func HashCalendarID(id string) string {
	if id == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(id))
	return "cal:" + hex.EncodeToString(hash[:8])
}

// CalendarHash returns a slog attribute with the hashed calendar identity.
func CalendarHash(id string) slog.Attr {
	return slog.String(KeyCalendarHash, HashCalendarID(id))
}

// SanitizeSecret returns a masked version of a credential for logging.
// It returns a length indicator without exposing any content.
func SanitizeSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[secret:%d chars]", len(secret))
}

// Truncate shortens free text (user input, model output) for debug logs.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
