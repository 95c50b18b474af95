package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotkeeper/internal/instrumentation"
	"github.com/teemow/slotkeeper/internal/server"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type invocationKey struct{}

// InvocationFromContext returns the audit record of the running tool call,
// or nil outside an instrumented handler.
func InvocationFromContext(ctx context.Context) *instrumentation.ToolInvocation {
	inv, _ := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation)
	return inv
}

// SessionFromContext returns the MCP client session ID, or "".
func SessionFromContext(ctx context.Context) string {
	if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
		return session.SessionID()
	}
	return ""
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging. Handlers can enrich the audit record through
// InvocationFromContext.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		session := SessionFromContext(ctx)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithCalendar(sc.CalendarHash()).
				WithSession(session).
				WithReadOnly(sc.ReadOnly()).
				Build()...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSession(session).
			WithCalendar(sc.CalendarHash()).
			WithSpanContext(ctx)

		result, err := handler(context.WithValue(ctx, invocationKey{}, invocation), request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			toolErr := errors.New(resultText(result))
			invocation.CompleteWithError(toolErr)
			instrumentation.SetSpanError(span, toolErr)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return "tool returned an error"
}
