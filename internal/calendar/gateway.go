package calendar

import (
	"context"
	"sort"
)

// Gateway is the contract between the booking logic and a calendar.
type Gateway interface {
	// IsAvailable reports whether no event overlaps iv. Any failure
	// yields (false, err).
	IsAvailable(ctx context.Context, iv Interval) (bool, error)

	// ListOverlapping returns the events overlapping iv, sorted by start.
	ListOverlapping(ctx context.Context, iv Interval) ([]BusyInterval, error)

	// InsertEvent creates an event. Failures are reported in the result.
	// Repeated calls create repeated events.
	InsertEvent(ctx context.Context, summary string, iv Interval, description string) BookingResult
}

// ConditionalInserter is implemented by gateways that can check and insert
// atomically.
type ConditionalInserter interface {
	InsertIfFree(ctx context.Context, summary string, iv Interval, description string) BookingResult
}

// filterOverlapping keeps the events that overlap iv, sorted by start.
func filterOverlapping(events []BusyInterval, iv Interval) []BusyInterval {
	out := make([]BusyInterval, 0, len(events))
	for _, ev := range events {
		if ev.Overlaps(iv) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
