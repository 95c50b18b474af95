package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/slotkeeper/internal/booking"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		args    string
		want    booking.Command
		wantErr bool
	}{
		{"check", booking.NameCheckAvailability, `{"time":"July 3 at 3pm"}`, booking.CheckAvailability{TimeText: "July 3 at 3pm"}, false},
		{"book with end", booking.NameBookEvent, `{"summary":"Demo","start":"3pm","end":"4pm"}`, booking.BookEvent{Summary: "Demo", StartText: "3pm", EndText: "4pm"}, false},
		{"book without end", booking.NameBookEvent, `{"summary":"Demo","start":"3pm"}`, booking.BookEvent{Summary: "Demo", StartText: "3pm"}, false},
		{"free slots", booking.NameFreeSlotsForDay, `{"day":"tomorrow"}`, booking.FreeSlotsForDay{DayText: "tomorrow"}, false},
		{"today with empty args", booking.NameTodayDate, ``, booking.TodayDate{}, false},
		{"malformed json", booking.NameCheckAvailability, `{"time":`, nil, true},
		{"unknown tool", "delete_event", `{}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand(tt.tool, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTools(t *testing.T) {
	names := func(readOnly bool) []string {
		var out []string
		for _, tool := range Tools(readOnly) {
			out = append(out, tool.Function.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{
		booking.NameCheckAvailability,
		booking.NameFreeSlotsForDay,
		booking.NameTodayDate,
		booking.NameBookEvent,
	}, names(false))
	assert.NotContains(t, names(true), booking.NameBookEvent)
}
