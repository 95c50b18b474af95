// Package server provides the MCP server context, the streamable HTTP
// server and the operational endpoints for slotkeeper.
//
// # Key Components
//
// ServerContext carries the booking runner, the hashed calendar identity
// and the optional metrics and audit logger that tool handlers use.
//
// HTTPServer exposes an MCP server over streamable HTTP on /mcp, together
// with the health endpoints. Requests are counted and timed when metrics
// are configured.
//
// HealthChecker serves liveness and readiness probes. Readiness runs the
// registered dependency checks, such as the calendar credentials or the
// slot lock store.
//
// MetricsServer serves Prometheus metrics on a dedicated port.
package server
