package dialogue

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/teemow/slotkeeper/internal/booking"
)

type checkArgs struct {
	Time string `json:"time"`
}

type bookArgs struct {
	Summary string `json:"summary"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type dayArgs struct {
	Day string `json:"day"`
}

// Tools returns the function tools declared to the model. The booking tool
// is left out in read-only mode.
func Tools(readOnly bool) []openai.Tool {
	tools := []openai.Tool{
		function(booking.NameCheckAvailability,
			"Check whether the calendar is free for a slot starting at the given time.",
			jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"time": {Type: jsonschema.String, Description: "Start time as the user said it, e.g. 'July 3 at 3pm' or '2025-07-03 15:00'"},
				},
				Required: []string{"time"},
			}),
		function(booking.NameFreeSlotsForDay,
			"List the free slots on a day within working hours.",
			jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"day": {Type: jsonschema.String, Description: "The day, e.g. 'tomorrow' or '2025-07-03'"},
				},
				Required: []string{"day"},
			}),
		function(booking.NameTodayDate,
			"Return today's date. Use it to resolve relative dates.",
			jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{},
			}),
	}

	if !readOnly {
		tools = append(tools, function(booking.NameBookEvent,
			"Book an event on the calendar if the time is free.",
			jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"summary": {Type: jsonschema.String, Description: "Event title"},
					"start":   {Type: jsonschema.String, Description: "Start time as the user said it"},
					"end":     {Type: jsonschema.String, Description: "Optional end time; defaults to the slot length"},
				},
				Required: []string{"summary", "start"},
			}))
	}

	return tools
}

func function(name, description string, params jsonschema.Definition) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

// DecodeCommand maps a tool call to a typed command.
func DecodeCommand(name, arguments string) (booking.Command, error) {
	if arguments == "" {
		arguments = "{}"
	}
	raw := []byte(arguments)

	switch name {
	case booking.NameCheckAvailability:
		var a checkArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		return booking.CheckAvailability{TimeText: a.Time}, nil
	case booking.NameBookEvent:
		var a bookArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		return booking.BookEvent{Summary: a.Summary, StartText: a.Start, EndText: a.End}, nil
	case booking.NameFreeSlotsForDay:
		var a dayArgs
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", name, err)
		}
		return booking.FreeSlotsForDay{DayText: a.Day}, nil
	case booking.NameTodayDate:
		return booking.TodayDate{}, nil
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}
