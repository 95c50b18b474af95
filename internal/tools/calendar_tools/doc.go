// Package calendar_tools provides the MCP tools for checking and booking
// slots on the configured calendar.
//
// Every tool turns its arguments into a booking command, runs it through
// the server's booking runner and returns the formatted answer as text.
// The booking tool is only registered when the server is not read-only.
package calendar_tools
