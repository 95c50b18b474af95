package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/slotkeeper/internal/instrumentation"
	"github.com/teemow/slotkeeper/internal/logging"
	"github.com/teemow/slotkeeper/internal/server"
	"github.com/teemow/slotkeeper/internal/tools/calendar_tools"
)

// Transport types.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// ServeConfig holds the serve command settings.
type ServeConfig struct {
	Transport        string
	HTTPAddr         string
	Yolo             bool
	DisableStreaming bool
	TLSCertFile      string
	TLSKeyFile       string
	Metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	var sc ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide calendar slot
checking and booking tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode and only offers the
  availability, free slots and date tools.
  Use --yolo to enable the booking tool.

Health and metrics (streamable-http only):
  /healthz and /readyz are served next to /mcp. Readiness checks the
  calendar credentials and, with booking.lock=redis, the lock store.
  Prometheus metrics are served on a dedicated port (--metrics-addr).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &sc)
			return runServe(cmd, sc)
		},
	}

	cmd.Flags().StringVar(&sc.Transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&sc.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&sc.Yolo, "yolo", false, "Enable the booking tool (default: read-only mode)")
	cmd.Flags().BoolVar(&sc.DisableStreaming, "disable-streaming", false, "Disable streaming for streamable-http transport")

	// TLS flags for HTTPS support
	cmd.Flags().StringVar(&sc.TLSCertFile, "tls-cert-file", "", "Path to TLS certificate file (PEM format). If provided with --tls-key-file, enables HTTPS. Can also use TLS_CERT_FILE env var.")
	cmd.Flags().StringVar(&sc.TLSKeyFile, "tls-key-file", "", "Path to TLS private key file (PEM format). If provided with --tls-cert-file, enables HTTPS. Can also use TLS_KEY_FILE env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&sc.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&sc.Metrics.Addr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars applies environment variables to settings whose flag
// was not set explicitly.
func loadServeEnvVars(cmd *cobra.Command, sc *ServeConfig) {
	if !cmd.Flags().Changed("metrics-enabled") {
		switch os.Getenv("METRICS_ENABLED") {
		case "true":
			sc.Metrics.Enabled = true
		case "false":
			sc.Metrics.Enabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			sc.Metrics.Addr = addr
		}
	}
	if !cmd.Flags().Changed("tls-cert-file") {
		if f := os.Getenv("TLS_CERT_FILE"); f != "" {
			sc.TLSCertFile = f
		}
	}
	if !cmd.Flags().Changed("tls-key-file") {
		if f := os.Getenv("TLS_KEY_FILE"); f != "" {
			sc.TLSKeyFile = f
		}
	}
}

func runServe(cmd *cobra.Command, sc ServeConfig) error {
	if sc.Transport != transportStdio && sc.Transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", sc.Transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the stdio transport; HTTP deployments log JSON.
	if sc.Transport != transportStdio && !cmd.Flags().Changed("log-format") {
		logFormat = logging.FormatJSON
	}
	logger := newLogger(os.Stderr)

	provider, shutdownProvider, err := newInstrumentation(shutdownCtx, logger)
	if err != nil {
		return err
	}
	defer shutdownProvider()

	// Start metrics server if enabled and not in stdio mode
	if sc.Transport != transportStdio && sc.Metrics.Enabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(sc.Metrics.Addr, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	a, err := newApp(shutdownCtx, cmd.Flags(), logger, provider.Metrics())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	// readOnly is the inverse of yolo
	readOnly := !sc.Yolo

	serverContext, err := server.NewServerContext(shutdownCtx, a.orchestrator, a.calendarHash, readOnly)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = serverContext.Shutdown() }()

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(provider.AuditLogger(logger))
	}

	mcpSrv := newMCPServer()
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register calendar tools: %w", err)
	}

	if readOnly {
		logger.Info("starting server in read-only mode (use --yolo to enable booking)", slog.String("transport", sc.Transport))
	} else {
		logger.Info("starting server with booking enabled", slog.String("transport", sc.Transport))
	}

	if sc.Transport == transportStdio {
		return runStdioServer(mcpSrv)
	}
	return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, a, sc, provider, logger)
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("slotkeeper", version,
		mcpserver.WithToolCapabilities(true),
	)
}

// newInstrumentation builds the provider from the environment. The returned
// func flushes and stops it.
func newInstrumentation(ctx context.Context, logger *slog.Logger) (*instrumentation.Provider, func(), error) {
	cfg := instrumentation.DefaultConfig()
	cfg.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	return provider, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}, nil
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	// Wait for metrics server to be ready or fail
	select {
	case <-metricsReady:
		logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, a *app, sc ServeConfig, provider *instrumentation.Provider, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		DisableStreaming: sc.DisableStreaming,
		TLSCertFile:      sc.TLSCertFile,
		TLSKeyFile:       sc.TLSKeyFile,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	// Set up health checker for health check endpoints
	healthChecker := server.NewHealthChecker(serverContext)
	for name, check := range a.checks {
		healthChecker.AddCheck(name, check)
	}
	httpServer.SetHealthChecker(healthChecker)

	// Set up HTTP instrumentation for metrics
	if provider.Enabled() {
		httpServer.SetMetrics(provider.Metrics())
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(sc.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
