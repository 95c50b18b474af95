package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks value ranges and cross-field invariants.
func (c *Config) Validate() error {
	switch c.Calendar.Backend {
	case BackendGoogle, BackendMemory:
	default:
		return fmt.Errorf("%w: calendar.backend must be %q or %q, got %q", ErrInvalidConfig, BackendGoogle, BackendMemory, c.Calendar.Backend)
	}
	if c.Calendar.ID == "" {
		return fmt.Errorf("%w: calendar.id must not be empty", ErrInvalidConfig)
	}
	if c.Calendar.Timeout <= 0 {
		return fmt.Errorf("%w: calendar.timeout must be positive, got %s", ErrInvalidConfig, c.Calendar.Timeout)
	}
	if c.Calendar.RateLimit <= 0 {
		return fmt.Errorf("%w: calendar.rate_limit must be positive, got %g", ErrInvalidConfig, c.Calendar.RateLimit)
	}
	if _, err := time.LoadLocation(c.Calendar.EventTimezone); err != nil {
		return fmt.Errorf("%w: calendar.event_timezone: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: time.location: %v", ErrInvalidConfig, err)
	}

	if c.Slots.Duration <= 0 {
		return fmt.Errorf("%w: slots.duration must be positive, got %s", ErrInvalidConfig, c.Slots.Duration)
	}
	start, end, err := c.WindowOffsets()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if start >= end {
		return fmt.Errorf("%w: slots.window_start %s must be before slots.window_end %s", ErrInvalidConfig, c.Slots.WindowStart, c.Slots.WindowEnd)
	}
	if (end-start)%c.Slots.Duration != 0 {
		return fmt.Errorf("%w: working window %s-%s is not a multiple of the %s slot", ErrInvalidConfig, c.Slots.WindowStart, c.Slots.WindowEnd, c.Slots.Duration)
	}

	switch c.Booking.Lock {
	case LockNone:
	case LockRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr is required when booking.lock is redis", ErrInvalidConfig)
		}
		if c.Booking.LockTTL <= 0 {
			return fmt.Errorf("%w: booking.lock_ttl must be positive, got %s", ErrInvalidConfig, c.Booking.LockTTL)
		}
	default:
		return fmt.Errorf("%w: booking.lock must be %q or %q, got %q", ErrInvalidConfig, LockNone, LockRedis, c.Booking.Lock)
	}

	if c.LLM.History < 2 {
		return fmt.Errorf("%w: llm.history must be at least 2, got %d", ErrInvalidConfig, c.LLM.History)
	}

	return nil
}

// ValidateGoogle checks that service-account credentials are configured.
// Only the google backend needs them.
func (c *Config) ValidateGoogle() error {
	if c.Calendar.Backend != BackendGoogle {
		return nil
	}
	if c.Calendar.CredentialsFile == "" && c.Calendar.CredentialsJSON == "" {
		return fmt.Errorf("%w: calendar.credentials_file or calendar.credentials_json is required for the google backend", ErrInvalidConfig)
	}
	return nil
}

// ValidateLLM checks the settings the chat front end needs.
func (c *Config) ValidateLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("%w: llm.api_key is required for chat (set SLOTKEEPER_LLM_API_KEY)", ErrInvalidConfig)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm.model must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Location returns the zone attached to time text without an explicit zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Time.Location {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Time.Location)
	}
}

// WindowOffsets returns the working window as offsets from local midnight.
func (c *Config) WindowOffsets() (start, end time.Duration, err error) {
	start, err = ParseClock(c.Slots.WindowStart)
	if err != nil {
		return 0, 0, fmt.Errorf("slots.window_start: %w", err)
	}
	end, err = ParseClock(c.Slots.WindowEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("slots.window_end: %w", err)
	}
	return start, end, nil
}

// ParseClock parses a "HH:MM" wall clock into an offset from midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (time.Duration, error) {
	if s == "24:00" {
		return 24 * time.Hour, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q, expected HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
