// Package slots computes free fixed-size slots inside a daily working window.
package slots

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/slotkeeper/internal/calendar"
	"github.com/teemow/slotkeeper/internal/logging"
)

// DefaultSlot is the default slot size.
const DefaultSlot = 30 * time.Minute

// Calculator lists the free slots of a day. It keeps no state between calls.
type Calculator struct {
	gateway calendar.Gateway
	window  WorkingWindow
	slot    time.Duration
	loc     *time.Location
	logger  *slog.Logger
}

// NewCalculator creates a Calculator. The window is interpreted in loc.
func NewCalculator(gateway calendar.Gateway, window WorkingWindow, slot time.Duration, loc *time.Location, logger *slog.Logger) (*Calculator, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway cannot be nil")
	}
	if err := window.Validate(slot); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		gateway: gateway,
		window:  window,
		slot:    slot,
		loc:     loc,
		logger:  logging.WithOperation(logger, "free_slots"),
	}, nil
}

// Window returns the configured working window.
func (c *Calculator) Window() WorkingWindow {
	return c.window
}

// FreeSlots returns the free slots on the calendar day of day, in start
// order. A gateway failure is returned as an error, never as an empty list.
func (c *Calculator) FreeSlots(ctx context.Context, day time.Time) ([]calendar.Interval, error) {
	window := c.window.On(day, c.loc)

	busy, err := c.gateway.ListOverlapping(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to list busy intervals: %w", err)
	}

	free := FreeSlotsIn(busy, window, c.slot)
	c.logger.DebugContext(ctx, "free slots computed",
		slog.String("window", window.String()),
		slog.Int("busy", len(busy)),
		slog.Int("free", len(free)))

	return free, nil
}

// FreeSlotsIn walks window in slot steps and keeps every slot that
// overlaps no busy interval. Slots are returned in the window's zone.
func FreeSlotsIn(busy []calendar.BusyInterval, window calendar.Interval, slot time.Duration) []calendar.Interval {
	if slot <= 0 || !window.Valid() {
		return nil
	}

	loc := window.Start.Location()
	var free []calendar.Interval
	for cur := window.Start; !cur.Add(slot).After(window.End); cur = cur.Add(slot) {
		candidate := calendar.Interval{Start: cur, End: cur.Add(slot)}
		if !overlapsAny(candidate, busy) {
			free = append(free, candidate.In(loc))
		}
	}
	return free
}

func overlapsAny(iv calendar.Interval, busy []calendar.BusyInterval) bool {
	for _, b := range busy {
		if iv.Overlaps(b.Interval) {
			return true
		}
	}
	return false
}
