// Package common provides shared helpers for MCP tool handlers: metrics,
// tracing and audit logging around every invocation.
package common
