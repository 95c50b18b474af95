package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/pflag"

	"github.com/teemow/slotkeeper/internal/booking"
	"github.com/teemow/slotkeeper/internal/calendar"
	"github.com/teemow/slotkeeper/internal/config"
	"github.com/teemow/slotkeeper/internal/google"
	"github.com/teemow/slotkeeper/internal/instrumentation"
	"github.com/teemow/slotkeeper/internal/logging"
	"github.com/teemow/slotkeeper/internal/server"
	"github.com/teemow/slotkeeper/internal/slots"
	"github.com/teemow/slotkeeper/internal/timeparse"
)

// app holds the booking stack shared by every command.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	orchestrator *booking.Orchestrator
	calendarHash string

	// checks are readiness probes for the configured dependencies.
	checks  map[string]server.CheckFunc
	closers []func() error
}

// newApp loads configuration and builds the calendar gateway, the slot
// calculator, the optional redis slot lock and the orchestrator.
func newApp(ctx context.Context, flags *pflag.FlagSet, logger *slog.Logger, metrics *instrumentation.Metrics) (*app, error) {
	cfg, err := config.Load(nil, configFile, flags)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	start, end, err := cfg.WindowOffsets()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		logger:       logger,
		calendarHash: logging.HashCalendarID(cfg.Calendar.ID),
		checks:       make(map[string]server.CheckFunc),
	}

	gateway, err := a.newGateway(ctx, metrics)
	if err != nil {
		return nil, err
	}

	calc, err := slots.NewCalculator(gateway, slots.WorkingWindow{Start: start, End: end}, cfg.Slots.Duration, loc, logger)
	if err != nil {
		return nil, err
	}

	var locker booking.SlotLocker
	if cfg.Booking.Lock == config.LockRedis {
		locker = a.newRedisLocker()
	}

	a.orchestrator, err = booking.New(booking.Config{
		Normalizer: timeparse.New(
			timeparse.WithLocation(loc),
			timeparse.WithDayFirst(cfg.Time.DayFirst),
		),
		Gateway:         gateway,
		Slots:           calc,
		Locker:          locker,
		LockKey:         a.calendarHash,
		DefaultDuration: cfg.Slots.Duration,
		Description:     cfg.Calendar.Description,
		Metrics:         metrics,
		Logger:          logger,
	})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	logger.Debug("booking stack ready",
		logging.CalendarHash(cfg.Calendar.ID),
		slog.String("backend", cfg.Calendar.Backend),
		slog.String("lock", cfg.Booking.Lock),
		slog.String("location", loc.String()))

	return a, nil
}

func (a *app) newGateway(ctx context.Context, metrics *instrumentation.Metrics) (calendar.Gateway, error) {
	if a.cfg.Calendar.Backend == config.BackendMemory {
		a.logger.Warn("using the in-memory calendar backend, bookings are not persisted")
		return calendar.NewMemoryGateway(), nil
	}

	if err := a.cfg.ValidateGoogle(); err != nil {
		return nil, err
	}

	provider, err := google.NewServiceAccountProvider(google.ServiceAccountConfig{
		CredentialsFile: a.cfg.Calendar.CredentialsFile,
		CredentialsJSON: a.cfg.Calendar.CredentialsJSON,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load Google credentials: %w", err)
	}

	ts, err := provider.TokenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create token source: %w", err)
	}
	a.checks["google_credentials"] = func(context.Context) error {
		return google.Check(ts)
	}

	gateway, err := calendar.NewGoogleGateway(ctx, ts, calendar.GoogleConfig{
		CalendarID:    a.cfg.Calendar.ID,
		EventTimezone: a.cfg.Calendar.EventTimezone,
		Timeout:       a.cfg.Calendar.Timeout,
		RateLimit:     a.cfg.Calendar.RateLimit,
		Metrics:       metrics,
		Logger:        a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar gateway: %w", err)
	}
	return gateway, nil
}

func (a *app) newRedisLocker() *booking.RedisLocker {
	redis.SetLogger(logging.NewSlogAdapter(logging.WithService(a.logger, instrumentation.ServiceLock)))

	client := redis.NewClient(&redis.Options{
		Addr:        a.cfg.Redis.Addr,
		Password:    a.cfg.Redis.Password,
		DB:          a.cfg.Redis.DB,
		DialTimeout: 2 * time.Second,
	})
	locker := booking.NewRedisLocker(client, a.cfg.Booking.LockTTL, 0, a.logger)

	a.checks["slot_lock"] = locker.Ping
	a.closers = append(a.closers, locker.Close)
	return locker
}

// Close releases connections held by the stack.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
