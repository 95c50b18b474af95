package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotkeeper/internal/instrumentation"
)

// MCPEndpoint is the path of the streamable HTTP MCP endpoint.
const MCPEndpoint = "/mcp"

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	// DisableStreaming turns off SSE streaming of responses for clients
	// that cannot handle it.
	DisableStreaming bool

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	Logger *slog.Logger
}

// HTTPServer serves an MCP server over streamable HTTP together with the
// health endpoints.
type HTTPServer struct {
	mcpServer     *mcpserver.MCPServer
	config        HTTPServerConfig
	httpServer    *http.Server
	healthChecker *HealthChecker
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
}

// NewHTTPServer creates a new HTTPServer.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("mcp server cannot be nil")
	}
	if (config.TLSCertFile == "") != (config.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS certificate and key files must be provided")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &HTTPServer{
		mcpServer: mcpServer,
		config:    config,
		logger:    config.Logger,
	}, nil
}

// SetHealthChecker enables the health endpoints.
func (s *HTTPServer) SetHealthChecker(h *HealthChecker) {
	s.healthChecker = h
}

// SetMetrics enables HTTP request metrics.
func (s *HTTPServer) SetMetrics(m *instrumentation.Metrics) {
	s.metrics = m
}

// Handler returns the server's routes.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpoint),
	}
	if s.config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(s.mcpServer, opts...))

	if s.healthChecker != nil {
		s.healthChecker.RegisterHealthEndpoints(mux)
	}

	if s.metrics == nil {
		return mux
	}
	return s.instrument(mux)
}

// Start listens on addr and serves until Shutdown.
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting MCP HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpoint,
		"tls", s.config.TLSCertFile != "")

	if s.config.TLSCertFile != "" {
		return s.httpServer.ServeTLS(ln, s.config.TLSCertFile, s.config.TLSKeyFile)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.metrics.RecordHTTPRequest(r.Context(), r.Method, routeLabel(r.URL.Path), rec.status, time.Since(start))
	})
}

// routeLabel folds request paths into the fixed set of routes.
func routeLabel(path string) string {
	switch path {
	case MCPEndpoint, "/healthz", "/readyz", "/healthz/detailed":
		return path
	default:
		return "other"
	}
}
