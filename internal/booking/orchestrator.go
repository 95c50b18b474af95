// Package booking turns typed commands into calendar operations and
// user-facing sentences.
//
// A booking runs normalize, check, commit. The availability check fails
// closed: a gateway error reads as "not available" and never leads to a
// commit. When the gateway can check and insert atomically the two steps
// are one call; otherwise an optional SlotLocker serializes them.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/slotkeeper/internal/calendar"
	"github.com/teemow/slotkeeper/internal/instrumentation"
	"github.com/teemow/slotkeeper/internal/logging"
	"github.com/teemow/slotkeeper/internal/slots"
	"github.com/teemow/slotkeeper/internal/timeparse"
)

// ErrMissingSummary is returned when a booking has no title.
var ErrMissingSummary = errors.New("event summary is required")

// DefaultDescription is written on every booked event.
const DefaultDescription = "Booking done through agent"

// Config wires an Orchestrator.
type Config struct {
	Normalizer *timeparse.Normalizer
	Gateway    calendar.Gateway
	Slots      *slots.Calculator

	// Locker is optional. It is ignored when Gateway is a ConditionalInserter.
	Locker SlotLocker
	// LockKey scopes the lock, normally the hashed calendar ID.
	LockKey string

	// DefaultDuration is used when no end time is given (default: 30m).
	DefaultDuration time.Duration
	// Description is written on booked events.
	Description string

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Orchestrator executes commands. It is safe for concurrent use.
type Orchestrator struct {
	normalizer  *timeparse.Normalizer
	gateway     calendar.Gateway
	slots       *slots.Calculator
	locker      SlotLocker
	lockKey     string
	duration    time.Duration
	description string
	metrics     *instrumentation.Metrics
	logger      *slog.Logger
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Normalizer == nil {
		return nil, fmt.Errorf("normalizer cannot be nil")
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("gateway cannot be nil")
	}
	if cfg.Slots == nil {
		return nil, fmt.Errorf("slot calculator cannot be nil")
	}
	if cfg.DefaultDuration <= 0 {
		cfg.DefaultDuration = slots.DefaultSlot
	}
	if cfg.Description == "" {
		cfg.Description = DefaultDescription
	}
	if cfg.LockKey == "" {
		cfg.LockKey = "default"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Orchestrator{
		normalizer:  cfg.Normalizer,
		gateway:     cfg.Gateway,
		slots:       cfg.Slots,
		locker:      cfg.Locker,
		lockKey:     cfg.LockKey,
		duration:    cfg.DefaultDuration,
		description: cfg.Description,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}, nil
}

// Execute runs cmd and formats the outcome.
func (o *Orchestrator) Execute(ctx context.Context, cmd Command) string {
	return Format(o.Run(ctx, cmd))
}

// Run runs cmd and returns its typed outcome.
func (o *Orchestrator) Run(ctx context.Context, cmd Command) Outcome {
	switch c := commandValue(cmd).(type) {
	case CheckAvailability:
		return o.Check(ctx, c.TimeText)
	case BookEvent:
		return o.Book(ctx, c.Summary, c.StartText, c.EndText)
	case FreeSlotsForDay:
		return o.FreeSlots(ctx, c.DayText)
	case TodayDate:
		return o.Today(ctx)
	default:
		// nil commands, including nil pointers
		return nil
	}
}

// commandValue dereferences pointer commands; their method sets also
// satisfy Command.
func commandValue(cmd Command) Command {
	switch c := cmd.(type) {
	case *CheckAvailability:
		if c != nil {
			return *c
		}
	case *BookEvent:
		if c != nil {
			return *c
		}
	case *FreeSlotsForDay:
		if c != nil {
			return *c
		}
	case *TodayDate:
		if c != nil {
			return *c
		}
	}
	return cmd
}

// CheckAvailability reports whether the slot starting at timeText is free.
func (o *Orchestrator) CheckAvailability(ctx context.Context, timeText string) string {
	return Format(o.Check(ctx, timeText))
}

// BookEvent books summary from startText to endText (optional).
func (o *Orchestrator) BookEvent(ctx context.Context, summary, startText, endText string) string {
	return Format(o.Book(ctx, summary, startText, endText))
}

// FreeSlotsForDay lists the free slots of the day named by dayText.
func (o *Orchestrator) FreeSlotsForDay(ctx context.Context, dayText string) string {
	return Format(o.FreeSlots(ctx, dayText))
}

// TodayDate names the current date.
func (o *Orchestrator) TodayDate(ctx context.Context) string {
	return Format(o.Today(ctx))
}

// Check normalizes timeText and asks the gateway whether the interval is free.
func (o *Orchestrator) Check(ctx context.Context, timeText string) CheckOutcome {
	logger := logging.WithOperation(o.logger, NameCheckAvailability)

	iv, err := o.normalizer.Normalize(ctx, timeText, o.duration)
	if err != nil {
		logger.DebugContext(ctx, "time text rejected", logging.Err(err))
		return CheckOutcome{Input: timeText, Err: err}
	}

	ok, err := o.gateway.IsAvailable(ctx, iv)
	if err != nil {
		logger.WarnContext(ctx, "availability check failed, reporting slot as unavailable",
			slog.String("interval", iv.String()), logging.Err(err))
		return CheckOutcome{Input: timeText, Interval: iv, Err: err}
	}

	return CheckOutcome{Input: timeText, Interval: iv, Available: ok}
}

// Book runs normalize, check and commit.
func (o *Orchestrator) Book(ctx context.Context, summary, startText, endText string) BookOutcome {
	ctx, span := instrumentation.StartSpan(ctx, "booking."+NameBookEvent)
	defer span.End()

	out := o.book(ctx, strings.TrimSpace(summary), startText, endText)

	state := out.State.String()
	instrumentation.SetSpanOutcome(span, state)
	if out.Err != nil {
		instrumentation.SetSpanError(span, out.Err)
	}
	o.metrics.RecordBookingOutcome(ctx, state)

	logger := logging.WithOperation(o.logger, NameBookEvent)
	logger.InfoContext(ctx, "booking finished",
		logging.Outcome(state), slog.String("interval", out.Interval.String()))
	logger.DebugContext(ctx, "booking details", slog.String("summary", logging.Truncate(out.Summary, 80)))

	return out
}

func (o *Orchestrator) book(ctx context.Context, summary, startText, endText string) BookOutcome {
	out := BookOutcome{Summary: summary, Input: startText}

	if summary == "" {
		out.State, out.Err = StateRejected, ErrMissingSummary
		return out
	}

	iv, err := o.normalizer.NormalizeRange(ctx, startText, endText, o.duration)
	if err != nil {
		out.State, out.Err = StateRejected, err
		return out
	}
	out.Interval = iv

	if ci, ok := o.gateway.(calendar.ConditionalInserter); ok {
		return withResult(out, ci.InsertIfFree(ctx, summary, iv, o.description))
	}

	if o.locker != nil {
		unlock, err := o.locker.Lock(ctx, o.lockKey)
		if err != nil {
			o.metrics.RecordSlotLock(ctx, lockResult(err))
			out.State, out.Err = StateFailed, err
			return out
		}
		o.metrics.RecordSlotLock(ctx, instrumentation.LockAcquired)
		defer unlock()
	}

	free, err := o.gateway.IsAvailable(ctx, iv)
	if err != nil {
		o.logger.WarnContext(ctx, "availability check failed, refusing to book",
			slog.String("interval", iv.String()), logging.Err(err))
		out.State, out.Err = StateFailed, err
		return out
	}
	if !free {
		out.State = StateConflict
		return out
	}

	return withResult(out, o.gateway.InsertEvent(ctx, summary, iv, o.description))
}

func withResult(out BookOutcome, res calendar.BookingResult) BookOutcome {
	switch res.Status {
	case calendar.BookingSuccess:
		out.State, out.Link = StateBooked, res.Link
	case calendar.BookingConflict:
		out.State = StateConflict
	default:
		out.State, out.Err = StateFailed, res.Err
	}
	return out
}

func lockResult(err error) string {
	if errors.Is(err, ErrLockHeld) {
		return instrumentation.LockContended
	}
	return instrumentation.LockError
}

// FreeSlots lists the free slots on the day named by dayText.
func (o *Orchestrator) FreeSlots(ctx context.Context, dayText string) FreeSlotsOutcome {
	day, err := o.normalizer.ParseDay(ctx, dayText)
	if err != nil {
		return FreeSlotsOutcome{Input: dayText, Err: err}
	}

	free, err := o.slots.FreeSlots(ctx, day)
	if err != nil {
		logging.WithOperation(o.logger, NameFreeSlotsForDay).WarnContext(ctx, "free slot lookup failed", logging.Err(err))
		return FreeSlotsOutcome{Input: dayText, Day: day, Err: err}
	}

	return FreeSlotsOutcome{Input: dayText, Day: day, Slots: free}
}

// Today returns the current time in the configured location.
func (o *Orchestrator) Today(_ context.Context) TodayOutcome {
	return TodayOutcome{Now: o.normalizer.Now()}
}
