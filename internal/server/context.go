package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/slotkeeper/internal/booking"
	"github.com/teemow/slotkeeper/internal/instrumentation"
)

// Runner executes booking commands. *booking.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, cmd booking.Command) booking.Outcome
}

// ServerContext holds what the MCP tools need: the booking orchestrator,
// the calendar identity and the optional instrumentation.
type ServerContext struct {
	ctx          context.Context
	cancel       context.CancelFunc
	runner       Runner
	calendarHash string
	readOnly     bool
	metrics      *instrumentation.Metrics
	auditLogger  *instrumentation.AuditLogger
	mu           sync.RWMutex
	shutdown     bool
}

// NewServerContext creates a new server context. calendarHash is the hashed
// calendar identity used in logs and audit records.
func NewServerContext(ctx context.Context, runner Runner, calendarHash string, readOnly bool) (*ServerContext, error) {
	if runner == nil {
		return nil, fmt.Errorf("booking runner cannot be nil")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		runner:       runner,
		calendarHash: calendarHash,
		readOnly:     readOnly,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Runner returns the booking runner.
func (sc *ServerContext) Runner() Runner {
	return sc.runner
}

// CalendarHash returns the hashed calendar identity.
func (sc *ServerContext) CalendarHash() string {
	return sc.calendarHash
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// SetMetrics sets the metrics recorder used by tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by tool handlers.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
