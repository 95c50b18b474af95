// Package logging provides structured logging utilities for slotkeeper.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Handler construction for CLI (text on stderr) and server (JSON) modes
//   - Consistent attribute naming across the codebase
//   - Calendar identity hashing so calendar IDs never appear in logs verbatim
//   - An slog adapter for libraries that log through Printf (go-redis)
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.insert")
//	logger.Info("event booked",
//	    logging.Status(logging.StatusSuccess))
//
// Hash the calendar identity before logging:
//
//	logger.Info("listing events", logging.CalendarHash(calendarID))
//
// # Security Considerations
//
//   - Calendar IDs are hashed to prevent leaking the shared calendar address
//   - Credentials and API keys are never logged directly, see SanitizeSecret
package logging
