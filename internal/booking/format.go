package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/slotkeeper/internal/calendar"
	"github.com/teemow/slotkeeper/internal/timeparse"
)

// User-facing messages.
const (
	MsgAvailable    = "Slot is available."
	MsgNotAvailable = "Slot is not available."
	MsgConflict     = "That time slot is already booked. Please try another time."
	MsgUnavailable  = "The calendar service is unavailable right now. Please try again."
	MsgUnexpected   = "Received an unexpected response from the calendar service."
	MsgBusy         = "Another booking for this calendar is in progress. Please try again in a moment."
	MsgNoSummary    = "Please tell me what the event is called."
)

const dayLayout = "Monday, January 2, 2006"

// Format renders an outcome as the sentence shown to the user. It is the
// only place user-facing text is built.
func Format(o Outcome) string {
	switch o := o.(type) {
	case CheckOutcome:
		return formatCheck(o)
	case BookOutcome:
		return formatBook(o)
	case FreeSlotsOutcome:
		return formatFreeSlots(o)
	case TodayOutcome:
		return "Today is " + o.Now.Format(dayLayout) + "."
	default:
		return MsgUnexpected
	}
}

func formatCheck(o CheckOutcome) string {
	var perr *timeparse.ParseError
	if errors.As(o.Err, &perr) {
		return formatParseError(perr)
	}
	if o.Available {
		return MsgAvailable
	}
	return MsgNotAvailable
}

func formatBook(o BookOutcome) string {
	switch o.State {
	case StateRejected:
		var perr *timeparse.ParseError
		if errors.As(o.Err, &perr) {
			return formatParseError(perr)
		}
		return formatError(o.Err)
	case StateConflict:
		return MsgConflict
	case StateBooked:
		link := o.Link
		if link == "" {
			link = "Link N/A"
		}
		return fmt.Sprintf("Event **'%s'** has been successfully booked!\nIt's scheduled from: `%s`\nTo: `%s`\nYou can view it here: %s",
			o.Summary,
			o.Interval.Start.Format(time.RFC3339),
			o.Interval.End.Format(time.RFC3339),
			link)
	case StateFailed:
		return "Sorry, I couldn't book the event: " + formatError(o.Err)
	default:
		return MsgUnexpected
	}
}

func formatFreeSlots(o FreeSlotsOutcome) string {
	if o.Err != nil {
		var perr *timeparse.ParseError
		if errors.As(o.Err, &perr) {
			return formatParseError(perr)
		}
		return formatError(o.Err)
	}
	if len(o.Slots) == 0 {
		return "No free slots available on " + o.Day.Format(dayLayout) + "."
	}

	lines := make([]string, len(o.Slots))
	for i, s := range o.Slots {
		lines[i] = s.Start.Format("15:04") + " - " + s.End.Format("15:04")
	}
	return strings.Join(lines, "\n")
}

func formatParseError(perr *timeparse.ParseError) string {
	return fmt.Sprintf("I couldn't understand the time %q. Could you rephrase it, for example \"July 3 at 3pm\"?", perr.Input)
}

func formatError(err error) string {
	switch {
	case err == nil:
		return MsgUnexpected
	case errors.Is(err, calendar.ErrUnexpectedResponse):
		return MsgUnexpected
	case errors.Is(err, calendar.ErrGatewayUnavailable), errors.Is(err, ErrLockUnavailable):
		return MsgUnavailable
	case errors.Is(err, ErrLockHeld):
		return MsgBusy
	case errors.Is(err, ErrMissingSummary):
		return MsgNoSummary
	default:
		return err.Error()
	}
}
