package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/slotkeeper/internal/instrumentation"
	"github.com/teemow/slotkeeper/internal/logging"
)

const (
	// DefaultTimeout bounds every remote call.
	DefaultTimeout = 10 * time.Second

	// DefaultRateLimit is the default number of API requests per second.
	DefaultRateLimit = 5

	dateLayout = "2006-01-02"
)

// GoogleConfig configures a GoogleGateway.
type GoogleConfig struct {
	// CalendarID is the calendar to read and write (default: primary).
	CalendarID string

	// EventTimezone is the IANA zone written on created events.
	EventTimezone string

	// Timeout bounds each remote call (default: 10s).
	Timeout time.Duration

	// RateLimit is the client-side request rate per second (default: 5).
	RateLimit float64

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// GoogleGateway implements Gateway on the Google Calendar v3 API.
type GoogleGateway struct {
	svc           *calendar.Service
	calendarID    string
	calendarHash  string
	eventTimezone string
	dateLoc       *time.Location
	timeout       time.Duration
	limiter       *rate.Limiter
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
}

// NewGoogleGateway creates a gateway whose HTTP client authenticates with ts.
// Tokens are fetched lazily on the first call and refreshed when they expire.
func NewGoogleGateway(ctx context.Context, ts oauth2.TokenSource, cfg GoogleConfig) (*GoogleGateway, error) {
	if ts == nil {
		return nil, fmt.Errorf("token source cannot be nil")
	}

	client := oauth2.NewClient(ctx, ts)

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return NewGoogleGatewayWithService(svc, cfg)
}

// NewGoogleGatewayWithService wraps an existing Calendar service.
func NewGoogleGatewayWithService(svc *calendar.Service, cfg GoogleConfig) (*GoogleGateway, error) {
	if svc == nil {
		return nil, fmt.Errorf("calendar service cannot be nil")
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.EventTimezone == "" {
		cfg.EventTimezone = "UTC"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	dateLoc, err := time.LoadLocation(cfg.EventTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid event timezone %q: %w", cfg.EventTimezone, err)
	}

	hash := logging.HashCalendarID(cfg.CalendarID)

	return &GoogleGateway{
		svc:           svc,
		calendarID:    cfg.CalendarID,
		calendarHash:  hash,
		eventTimezone: cfg.EventTimezone,
		dateLoc:       dateLoc,
		timeout:       cfg.Timeout,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		metrics:       cfg.Metrics,
		logger:        logging.WithService(cfg.Logger, instrumentation.ServiceCalendar).With(logging.CalendarHash(cfg.CalendarID)),
	}, nil
}

// IsAvailable reports whether no event overlaps iv.
func (g *GoogleGateway) IsAvailable(ctx context.Context, iv Interval) (bool, error) {
	busy, err := g.ListOverlapping(ctx, iv)
	if err != nil {
		return false, err
	}
	return len(busy) == 0, nil
}

// ListOverlapping lists the events overlapping iv, expanding recurring
// events into single instances.
func (g *GoogleGateway) ListOverlapping(ctx context.Context, iv Interval) ([]BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationList,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(g.calendarHash).WithInterval(iv.String()).Build()...)
	defer span.End()

	start := time.Now()
	events, err := g.listEvents(ctx, iv)
	g.record(ctx, instrumentation.OperationList, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)

	return filterOverlapping(events, iv), nil
}

func (g *GoogleGateway) listEvents(ctx context.Context, iv Interval) ([]BusyInterval, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	call := g.svc.Events.List(g.calendarID).
		TimeMin(iv.Start.UTC().Format(time.RFC3339)).
		TimeMax(iv.End.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	var busy []BusyInterval
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, event := range page.Items {
			if event == nil || event.Status == "cancelled" {
				continue
			}
			b, err := g.toBusyInterval(event)
			if err != nil {
				return err
			}
			busy = append(busy, b)
		}
		return nil
	})
	if err != nil {
		if isUnexpected(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to list events: %w", ErrGatewayUnavailable, err)
	}

	return busy, nil
}

// InsertEvent creates an event with the configured zone, an email reminder
// one day ahead and a popup ten minutes ahead.
func (g *GoogleGateway) InsertEvent(ctx context.Context, summary string, iv Interval, description string) BookingResult {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ctx, span := instrumentation.StartCalendarSpan(ctx, instrumentation.OperationInsert,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(g.calendarHash).WithInterval(iv.String()).Build()...)
	defer span.End()

	start := time.Now()
	created, err := g.insertEvent(ctx, summary, iv, description)
	g.record(ctx, instrumentation.OperationInsert, err, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		g.logger.WarnContext(ctx, "event insert failed", logging.Err(err))
		return Failed(iv, err)
	}
	instrumentation.SetSpanSuccess(span)

	g.logger.InfoContext(ctx, "event created", slog.String("event_id", created.Id))
	return Booked(iv, created.Id, created.HtmlLink)
}

func (g *GoogleGateway) insertEvent(ctx context.Context, summary string, iv Interval, description string) (*calendar.Event, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: iv.Start.Format(time.RFC3339),
			TimeZone: g.eventTimezone,
		},
		End: &calendar.EventDateTime{
			DateTime: iv.End.Format(time.RFC3339),
			TimeZone: g.eventTimezone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := g.svc.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create event: %w", ErrGatewayUnavailable, err)
	}
	if created == nil {
		return nil, fmt.Errorf("%w: empty insert response", ErrUnexpectedResponse)
	}
	return created, nil
}

func (g *GoogleGateway) record(ctx context.Context, operation string, err error, d time.Duration) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	g.metrics.RecordCalendarOperation(ctx, operation, status, g.calendarHash, d)
}

// toBusyInterval converts an API event. Timed events carry RFC3339 values;
// all-day events carry dates, read in the event zone.
func (g *GoogleGateway) toBusyInterval(event *calendar.Event) (BusyInterval, error) {
	start, err := g.parseEventTime(event.Start)
	if err != nil {
		return BusyInterval{}, fmt.Errorf("%w: event %s start: %w", ErrUnexpectedResponse, event.Id, err)
	}
	end, err := g.parseEventTime(event.End)
	if err != nil {
		return BusyInterval{}, fmt.Errorf("%w: event %s end: %w", ErrUnexpectedResponse, event.Id, err)
	}

	return BusyInterval{
		Interval: Interval{Start: start.UTC(), End: end.UTC()},
		EventID:  event.Id,
		Summary:  event.Summary,
	}, nil
}

func (g *GoogleGateway) parseEventTime(edt *calendar.EventDateTime) (time.Time, error) {
	switch {
	case edt == nil:
		return time.Time{}, fmt.Errorf("missing time")
	case edt.DateTime != "":
		return time.Parse(time.RFC3339, edt.DateTime)
	case edt.Date != "":
		return time.ParseInLocation(dateLayout, edt.Date, g.dateLoc)
	default:
		return time.Time{}, fmt.Errorf("missing time")
	}
}
