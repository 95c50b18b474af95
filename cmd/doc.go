// Package cmd implements the command-line interface for slotkeeper.
//
// This package provides the following commands:
//   - serve: Start the MCP server to provide calendar tools for AI assistants
//   - chat: Talk to the booking assistant in the terminal
//   - check, book, free, today: Run a single calendar command
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
