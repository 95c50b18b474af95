package calendar_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/slotkeeper/internal/booking"
	"github.com/teemow/slotkeeper/internal/server"
	"github.com/teemow/slotkeeper/internal/tools/common"
)

// Tool names.
const (
	ToolCheckAvailability = "calendar_check_availability"
	ToolBookEvent         = "calendar_book_event"
	ToolFreeSlots         = "calendar_free_slots"
	ToolTodayDate         = "calendar_today_date"
)

// RegisterCalendarTools registers the calendar tools with the MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	checkTool := mcp.NewTool(ToolCheckAvailability,
		mcp.WithDescription("Check whether the calendar is free for a slot starting at the given time. Times without a zone use the server's timezone."),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Start time in natural language or ISO form, e.g. 'July 3 at 3pm', 'tomorrow 10am', '2025-07-03 15:00'"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(checkTool, common.InstrumentedToolHandler(ToolCheckAvailability, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheckAvailability(ctx, request, sc)
		}))

	freeTool := mcp.NewTool(ToolFreeSlots,
		mcp.WithDescription("List the free slots within working hours on a day"),
		mcp.WithString("day",
			mcp.Required(),
			mcp.Description("The day, e.g. 'tomorrow', 'July 3', '2025-07-03'"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(freeTool, common.InstrumentedToolHandler(ToolFreeSlots, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFreeSlots(ctx, request, sc)
		}))

	todayTool := mcp.NewTool(ToolTodayDate,
		mcp.WithDescription("Return today's date in the server's timezone. Useful to resolve relative dates."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(todayTool, common.InstrumentedToolHandler(ToolTodayDate, sc,
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return run(ctx, sc, booking.TodayDate{}), nil
		}))

	if sc.ReadOnly() {
		return nil
	}

	bookTool := mcp.NewTool(ToolBookEvent,
		mcp.WithDescription("Book an event on the calendar. The event is only created if the time is free."),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time in natural language or ISO form"),
		),
		mcp.WithString("end",
			mcp.Description("End time (optional). Defaults to the configured slot length after start."),
		),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
	)
	s.AddTool(bookTool, common.InstrumentedToolHandler(ToolBookEvent, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBookEvent(ctx, request, sc)
		}))

	return nil
}

func handleCheckAvailability(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	timeText, err := request.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return run(ctx, sc, booking.CheckAvailability{TimeText: timeText}), nil
}

func handleFreeSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	day, err := request.RequireString("day")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return run(ctx, sc, booking.FreeSlotsForDay{DayText: day}), nil
}

func handleBookEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	summary, err := request.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := request.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return run(ctx, sc, booking.BookEvent{
		Summary:   summary,
		StartText: start,
		EndText:   request.GetString("end", ""),
	}), nil
}

// run executes cmd and returns the formatted outcome. Domain outcomes such
// as conflicts or unparsable times are answers, not tool errors.
func run(ctx context.Context, sc *server.ServerContext, cmd booking.Command) *mcp.CallToolResult {
	out := sc.Runner().Run(ctx, cmd)

	if b, ok := out.(booking.BookOutcome); ok {
		if inv := common.InvocationFromContext(ctx); inv != nil {
			inv.WithBooking(b.Summary, b.Interval.String()).WithOutcome(b.State.String())
		}
	}

	return mcp.NewToolResultText(booking.Format(out))
}
