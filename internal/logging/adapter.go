package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// PrintfLogger is implemented by libraries that log through a single
// Printf method, such as go-redis.
type PrintfLogger interface {
	Printf(ctx context.Context, format string, v ...interface{})
}

// SlogAdapter routes Printf-style library logs to an slog.Logger at warn
// level. The libraries using it only log connection trouble.
type SlogAdapter struct {
	logger *slog.Logger
}

var _ PrintfLogger = (*SlogAdapter)(nil)

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Printf logs the formatted message.
func (a *SlogAdapter) Printf(ctx context.Context, format string, v ...interface{}) {
	a.logger.WarnContext(ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *SlogAdapter) Logger() *slog.Logger {
	return a.logger
}
