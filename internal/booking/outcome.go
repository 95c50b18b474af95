package booking

import (
	"time"

	"github.com/teemow/slotkeeper/internal/calendar"
)

// Outcome is the typed result of a Command, before formatting.
type Outcome interface {
	outcome()
}

// State is the terminal state of a booking attempt.
type State int

const (
	// StateRejected means the time text could not be normalized.
	StateRejected State = iota
	// StateConflict means the interval is occupied or could not be verified free.
	StateConflict
	// StateBooked means the event was created.
	StateBooked
	// StateFailed means the commit was attempted and failed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRejected:
		return "rejected"
	case StateConflict:
		return "conflict"
	case StateBooked:
		return "booked"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CheckOutcome answers CheckAvailability. Err holds a parse error, or the
// gateway error that made the slot read as unavailable.
type CheckOutcome struct {
	Input     string
	Interval  calendar.Interval
	Available bool
	Err       error
}

// BookOutcome answers BookEvent.
type BookOutcome struct {
	State    State
	Summary  string
	Input    string
	Interval calendar.Interval
	Link     string
	Err      error
}

// FreeSlotsOutcome answers FreeSlotsForDay.
type FreeSlotsOutcome struct {
	Input string
	Day   time.Time
	Slots []calendar.Interval
	Err   error
}

// TodayOutcome answers TodayDate.
type TodayOutcome struct {
	Now time.Time
}

func (CheckOutcome) outcome()     {}
func (BookOutcome) outcome()      {}
func (FreeSlotsOutcome) outcome() {}
func (TodayOutcome) outcome()     {}

// OutcomeError returns the error carried by o, or nil. A conflict that was
// observed cleanly carries no error.
func OutcomeError(o Outcome) error {
	switch o := o.(type) {
	case CheckOutcome:
		return o.Err
	case BookOutcome:
		return o.Err
	case FreeSlotsOutcome:
		return o.Err
	default:
		return nil
	}
}
