package calendar

import (
	"time"
)

var (
	minTime = time.Unix(0, 0).UTC()
	maxTime = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval returns an Interval and reports whether Start is before End.
func NewInterval(start, end time.Time) (Interval, bool) {
	iv := Interval{Start: start, End: end}
	return iv, iv.Valid()
}

// Valid reports whether Start is strictly before End.
func (iv Interval) Valid() bool {
	return iv.Start.Before(iv.End)
}

// Duration returns End minus Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two half-open intervals share any instant.
// Intervals that only touch at an endpoint do not overlap. Comparison is
// on absolute instants, so the zones of the two intervals may differ.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// In returns the interval with both ends converted to loc.
func (iv Interval) In(loc *time.Location) Interval {
	return Interval{Start: iv.Start.In(loc), End: iv.End.In(loc)}
}

// UTC returns the interval with both ends converted to UTC.
func (iv Interval) UTC() Interval {
	return iv.In(time.UTC)
}

// String formats the interval as "start/end" in RFC3339.
func (iv Interval) String() string {
	return iv.Start.Format(time.RFC3339) + "/" + iv.End.Format(time.RFC3339)
}

// BusyInterval is an existing calendar event seen as an occupied range.
type BusyInterval struct {
	Interval
	EventID string
	Summary string
}

// BookingStatus is the tag of a BookingResult.
type BookingStatus int

const (
	// BookingSuccess means the event was created.
	BookingSuccess BookingStatus = iota
	// BookingConflict means the interval was already occupied.
	BookingConflict
	// BookingFailure means the remote call failed.
	BookingFailure
)

func (s BookingStatus) String() string {
	switch s {
	case BookingSuccess:
		return "success"
	case BookingConflict:
		return "conflict"
	case BookingFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// BookingResult is the outcome of inserting an event.
// Link and EventID are set on success; Err on failure.
type BookingResult struct {
	Status   BookingStatus
	Interval Interval
	Link     string
	EventID  string
	Err      error
}

// Booked builds a successful result.
func Booked(iv Interval, eventID, link string) BookingResult {
	return BookingResult{Status: BookingSuccess, Interval: iv, EventID: eventID, Link: link}
}

// Conflicted builds a conflict result for iv.
func Conflicted(iv Interval) BookingResult {
	return BookingResult{Status: BookingConflict, Interval: iv}
}

// Failed builds a failure result carrying err.
func Failed(iv Interval, err error) BookingResult {
	return BookingResult{Status: BookingFailure, Interval: iv, Err: err}
}

// Reason returns the failure message, or "" when the result is not a failure.
func (r BookingResult) Reason() string {
	if r.Status != BookingFailure || r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
