package calendar

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryGateway is an in-process calendar. It backs tests and the memory
// backend for local demos. It is safe for concurrent use.
type MemoryGateway struct {
	mu       sync.Mutex
	events   []BusyInterval
	failWith error
}

// NewMemoryGateway creates a MemoryGateway holding the given events.
func NewMemoryGateway(events ...BusyInterval) *MemoryGateway {
	g := &MemoryGateway{}
	for _, ev := range events {
		g.add(ev)
	}
	return g
}

// Add stores an event and returns its ID.
func (g *MemoryGateway) Add(summary string, iv Interval) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.add(BusyInterval{Interval: iv, Summary: summary})
}

func (g *MemoryGateway) add(ev BusyInterval) string {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	ev.Interval = ev.UTC()
	g.events = append(g.events, ev)
	return ev.EventID
}

// Events returns a snapshot of all stored events, sorted by start.
func (g *MemoryGateway) Events() []BusyInterval {
	g.mu.Lock()
	defer g.mu.Unlock()
	return filterOverlapping(g.events, Interval{Start: minTime, End: maxTime})
}

// FailWith makes every subsequent call fail with err. A nil err restores
// normal behaviour.
func (g *MemoryGateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWith = err
}

// IsAvailable reports whether no stored event overlaps iv.
func (g *MemoryGateway) IsAvailable(ctx context.Context, iv Interval) (bool, error) {
	busy, err := g.ListOverlapping(ctx, iv)
	if err != nil {
		return false, err
	}
	return len(busy) == 0, nil
}

// ListOverlapping returns the stored events overlapping iv.
func (g *MemoryGateway) ListOverlapping(ctx context.Context, iv Interval) ([]BusyInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failWith != nil {
		return nil, g.failWith
	}
	return filterOverlapping(g.events, iv), nil
}

// InsertEvent stores an event without checking for overlaps.
func (g *MemoryGateway) InsertEvent(ctx context.Context, summary string, iv Interval, _ string) BookingResult {
	if err := ctx.Err(); err != nil {
		return Failed(iv, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failWith != nil {
		return Failed(iv, g.failWith)
	}
	return g.insertLocked(summary, iv)
}

// InsertIfFree checks and inserts under one lock, so two concurrent
// bookings of the same interval cannot both succeed.
func (g *MemoryGateway) InsertIfFree(ctx context.Context, summary string, iv Interval, _ string) BookingResult {
	if err := ctx.Err(); err != nil {
		return Failed(iv, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failWith != nil {
		return Failed(iv, g.failWith)
	}
	if len(filterOverlapping(g.events, iv)) > 0 {
		return Conflicted(iv)
	}
	return g.insertLocked(summary, iv)
}

func (g *MemoryGateway) insertLocked(summary string, iv Interval) BookingResult {
	id := g.add(BusyInterval{Interval: iv, Summary: summary})
	return Booked(iv, id, "memory://events/"+id)
}
