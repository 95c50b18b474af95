package slots

import (
	"fmt"
	"time"

	"github.com/teemow/slotkeeper/internal/calendar"
)

// WorkingWindow is a daily range given as offsets from local midnight.
type WorkingWindow struct {
	Start time.Duration
	End   time.Duration
}

// DefaultWindow is 09:00 to 17:00.
var DefaultWindow = WorkingWindow{Start: 9 * time.Hour, End: 17 * time.Hour}

// Validate checks that the window is non-empty, fits in one day and is
// divisible into whole slots.
func (w WorkingWindow) Validate(slot time.Duration) error {
	if slot <= 0 {
		return fmt.Errorf("slot duration must be positive, got %s", slot)
	}
	if w.Start < 0 || w.End > 24*time.Hour {
		return fmt.Errorf("working window %s must lie within one day", w)
	}
	if w.Start >= w.End {
		return fmt.Errorf("working window %s is empty", w)
	}
	if (w.End-w.Start)%slot != 0 {
		return fmt.Errorf("working window %s is not a multiple of %s", w, slot)
	}
	return nil
}

// On returns the window on the calendar day of day, in loc. Wall clock
// arithmetic keeps 09:00 at 09:00 on days with a zone transition.
func (w WorkingWindow) On(day time.Time, loc *time.Location) calendar.Interval {
	d := day.In(loc)
	return calendar.Interval{
		Start: wallClock(d, w.Start, loc),
		End:   wallClock(d, w.End, loc),
	}
}

func (w WorkingWindow) String() string {
	return clockString(w.Start) + "-" + clockString(w.End)
}

func wallClock(day time.Time, offset time.Duration, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, int(offset/time.Minute), 0, 0, loc)
}

func clockString(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
