package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clock(hour, minute int) time.Time {
	return time.Date(2025, time.July, 3, hour, minute, 0, 0, time.UTC)
}

func span(h1, m1, h2, m2 int) Interval {
	return Interval{Start: clock(h1, m1), End: clock(h2, m2)}
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", span(10, 0, 11, 0), span(10, 0, 11, 0), true},
		{"partial", span(10, 0, 11, 0), span(10, 30, 11, 30), true},
		{"contained", span(9, 0, 17, 0), span(12, 0, 12, 30), true},
		{"abutting after", span(10, 0, 11, 0), span(11, 0, 11, 30), false},
		{"abutting before", span(10, 0, 11, 0), span(9, 30, 10, 0), false},
		{"disjoint", span(10, 0, 11, 0), span(14, 0, 15, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestInterval_OverlapsAcrossZones(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	local := span(10, 0, 11, 0).In(ist)

	assert.True(t, local.Overlaps(span(10, 30, 10, 45)))
	assert.False(t, local.Overlaps(span(11, 0, 12, 0)))
	assert.Equal(t, "IST", local.Start.Location().String())
}

func TestInterval_Valid(t *testing.T) {
	_, ok := NewInterval(clock(10, 0), clock(10, 30))
	assert.True(t, ok)

	_, ok = NewInterval(clock(10, 0), clock(10, 0))
	assert.False(t, ok)

	iv, ok := NewInterval(clock(11, 0), clock(10, 0))
	assert.False(t, ok)
	assert.False(t, iv.Valid())
}

func TestInterval_StringAndDuration(t *testing.T) {
	iv := span(15, 0, 15, 30)
	assert.Equal(t, "2025-07-03T15:00:00Z/2025-07-03T15:30:00Z", iv.String())
	assert.Equal(t, 30*time.Minute, iv.Duration())
}

func TestBookingResult(t *testing.T) {
	iv := span(15, 0, 15, 30)

	ok := Booked(iv, "evt1", "https://calendar.example/evt1")
	assert.Equal(t, BookingSuccess, ok.Status)
	assert.Empty(t, ok.Reason())

	c := Conflicted(iv)
	assert.Equal(t, BookingConflict, c.Status)
	assert.Equal(t, "conflict", c.Status.String())

	f := Failed(iv, ErrGatewayUnavailable)
	assert.Equal(t, BookingFailure, f.Status)
	assert.Equal(t, ErrGatewayUnavailable.Error(), f.Reason())
}
