// Package timeparse turns free-form time text such as "July 3 at 3pm",
// "2025-07-03 15:00" or "tomorrow 10am" into concrete intervals.
//
// Text is first tried with a structured lenient parser and then with
// English natural-language rules anchored at the current time. Values
// without an explicit zone get the normalizer's location.
package timeparse

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/teemow/slotkeeper/internal/calendar"
)

// Normalizer parses time text. It is safe for concurrent use.
type Normalizer struct {
	loc      *time.Location
	dayFirst bool
	now      func() time.Time
	rules    *when.Parser
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLocation sets the zone attached to text without an explicit zone.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithDayFirst reads ambiguous numeric dates such as 03/07/2025 as
// day/month instead of month/day.
func WithDayFirst(dayFirst bool) Option {
	return func(n *Normalizer) {
		n.dayFirst = dayFirst
	}
}

// WithNow replaces the clock used for relative phrases.
func WithNow(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a Normalizer. Defaults: local zone, month-first, wall clock.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		loc: time.Local,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}

	n.rules = when.New(nil)
	n.rules.Add(en.All...)
	// the common rule set reads slashed dates as dd/mm/yyyy
	if n.dayFirst {
		n.rules.Add(common.All...)
	}

	return n
}

// Location returns the zone attached to zone-less text.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Now returns the current time in the normalizer's location.
func (n *Normalizer) Now() time.Time {
	return n.now().In(n.loc)
}

// Normalize parses text as a start instant; the interval ends
// defaultDuration later.
func (n *Normalizer) Normalize(ctx context.Context, text string, defaultDuration time.Duration) (calendar.Interval, error) {
	return n.NormalizeRange(ctx, text, "", defaultDuration)
}

// NormalizeRange parses a start and an optional end. Without end text the
// interval is start plus defaultDuration. End text that only carries a
// clock time ("4pm") is read on the start's day.
func (n *Normalizer) NormalizeRange(ctx context.Context, startText, endText string, defaultDuration time.Duration) (calendar.Interval, error) {
	if err := ctx.Err(); err != nil {
		return calendar.Interval{}, err
	}

	start, err := n.parse(startText, n.Now())
	if err != nil {
		return calendar.Interval{}, err
	}

	var end time.Time
	if strings.TrimSpace(endText) == "" {
		if defaultDuration <= 0 {
			return calendar.Interval{}, &ParseError{Input: startText, Reason: "no end time and no default duration"}
		}
		end = start.Add(defaultDuration)
	} else {
		end, err = n.parse(endText, start)
		if err != nil {
			return calendar.Interval{}, err
		}
	}

	if !end.After(start) {
		return calendar.Interval{}, &ParseError{Input: endText, Reason: "end must be after start"}
	}

	return calendar.Interval{Start: start, End: end}, nil
}

// ParseDay parses text and returns local midnight of the day it names.
func (n *Normalizer) ParseDay(ctx context.Context, text string) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	t, err := n.parse(text, n.Now())
	if err != nil {
		return time.Time{}, err
	}
	t = t.In(n.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, n.loc), nil
}

func (n *Normalizer) parse(text string, base time.Time) (time.Time, error) {
	cleaned := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), ".?!"))
	if cleaned == "" {
		return time.Time{}, &ParseError{Input: text, Reason: "empty"}
	}

	base = base.In(n.loc)

	if t, matched, ok := n.parseYearless(cleaned); matched {
		if !ok {
			return time.Time{}, &ParseError{Input: text}
		}
		return t, nil
	}

	if t, ok := n.parseStructured(cleaned); ok {
		return t, nil
	}

	r, err := n.rules.Parse(cleaned, base)
	if err != nil || r == nil {
		return time.Time{}, &ParseError{Input: text}
	}

	t := r.Time.In(n.loc)
	// A phrase that names only a day leaves the base clock untouched;
	// such values resolve to midnight.
	if sameClock(t, base) {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, n.loc), nil
	}
	return t.Truncate(time.Minute), nil
}

func (n *Normalizer) parseStructured(text string) (time.Time, bool) {
	t, err := dateparse.ParseIn(text, n.loc,
		dateparse.PreferMonthFirst(!n.dayFirst),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return time.Time{}, false
	}
	// bare numbers and year-less dates come back with a zero year
	if t.Year() < 1900 {
		return time.Time{}, false
	}
	return t, true
}

// yearlessDate matches "03/07" or "3/7" with an optional clock part.
var yearlessDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:\s+(.+))?$`)

// parseYearless reads a numeric date without a year in the configured
// order and the current year. matched reports whether text has that shape.
func (n *Normalizer) parseYearless(text string) (t time.Time, matched, ok bool) {
	m := yearlessDate.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false, false
	}

	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	month, day := first, second
	if n.dayFirst {
		month, day = second, first
	}

	year := n.Now().Year()
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, n.loc)
	if month < 1 || month > 12 || date.Day() != day {
		return time.Time{}, true, false
	}

	clock := strings.TrimSpace(m[3])
	if clock == "" {
		return date, true, true
	}

	if t, ok := n.parseStructured(fmt.Sprintf("%04d-%02d-%02d %s", year, month, day, clock)); ok {
		return t, true, true
	}
	r, err := n.rules.Parse(clock, date)
	if err != nil || r == nil {
		return time.Time{}, true, false
	}
	t = r.Time.In(n.loc)
	return time.Date(year, time.Month(month), day, t.Hour(), t.Minute(), 0, 0, n.loc), true, true
}

func sameClock(a, b time.Time) bool {
	return a.Hour() == b.Hour() && a.Minute() == b.Minute() &&
		a.Second() == b.Second() && a.Nanosecond() == b.Nanosecond()
}
