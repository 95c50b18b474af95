package timeparse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+1800)

// 10:17:23.5 on Tuesday July 1st 2025
func fixedNow() time.Time {
	return time.Date(2025, time.July, 1, 10, 17, 23, 500_000_000, ist)
}

func newTestNormalizer(opts ...Option) *Normalizer {
	return New(append([]Option{WithLocation(ist), WithNow(fixedNow)}, opts...)...)
}

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.July, day, hour, minute, 0, 0, ist)
}

func TestNormalize(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		name      string
		text      string
		wantStart time.Time
	}{
		{"iso without zone", "2025-07-03 15:00", at(3, 15, 0)},
		{"iso with seconds", "2025-07-03 15:00:00", at(3, 15, 0)},
		{"date only", "2025-07-03", at(3, 0, 0)},
		{"trailing punctuation", "2025-07-03 15:00.", at(3, 15, 0)},
		{"tomorrow at hour", "tomorrow at 10am", at(2, 10, 0)},
		{"today afternoon hour", "today 4pm", at(1, 16, 0)},
		{"relative day only", "tomorrow", at(2, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := n.Normalize(context.Background(), tt.text, 30*time.Minute)
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(iv.Start), "start = %s, want %s", iv.Start, tt.wantStart)
			assert.Equal(t, 30*time.Minute, iv.End.Sub(iv.Start))
		})
	}
}

func TestNormalize_ExplicitZoneKept(t *testing.T) {
	n := newTestNormalizer()

	iv, err := n.Normalize(context.Background(), "2025-07-03T15:00:00Z", 30*time.Minute)
	require.NoError(t, err)

	want := time.Date(2025, time.July, 3, 15, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(iv.Start), "start = %s", iv.Start)
}

func TestNormalize_ZonelessGetsLocation(t *testing.T) {
	n := newTestNormalizer()

	iv, err := n.Normalize(context.Background(), "2025-07-03 15:00", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, ist, iv.Start.Location())
	assert.Equal(t, 15, iv.Start.Hour())
	assert.True(t, at(3, 16, 0).Equal(iv.End))
}

func TestNormalize_AmbiguousNumericDate(t *testing.T) {
	monthFirst := newTestNormalizer()
	dayFirst := newTestNormalizer(WithDayFirst(true))

	iv, err := monthFirst.Normalize(context.Background(), "03/07/2025 15:00", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.March, iv.Start.Month())
	assert.Equal(t, 7, iv.Start.Day())

	iv, err = dayFirst.Normalize(context.Background(), "03/07/2025 15:00", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.July, iv.Start.Month())
	assert.Equal(t, 3, iv.Start.Day())
}

func TestNormalize_YearlessNumericDate(t *testing.T) {
	tests := []struct {
		name      string
		dayFirst  bool
		text      string
		wantStart time.Time
	}{
		{"month first", false, "03/07", time.Date(2025, time.March, 7, 0, 0, 0, 0, ist)},
		{"day first", true, "03/07", time.Date(2025, time.July, 3, 0, 0, 0, 0, ist)},
		{"month first with clock", false, "03/07 15:00", time.Date(2025, time.March, 7, 15, 0, 0, 0, ist)},
		{"day first with clock", true, "03/07 15:00", time.Date(2025, time.July, 3, 15, 0, 0, 0, ist)},
		{"single digits", true, "3/7", time.Date(2025, time.July, 3, 0, 0, 0, 0, ist)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNormalizer(WithDayFirst(tt.dayFirst))

			iv, err := n.Normalize(context.Background(), tt.text, 30*time.Minute)
			require.NoError(t, err)
			assert.True(t, tt.wantStart.Equal(iv.Start), "start = %s, want %s", iv.Start, tt.wantStart)
		})
	}
}

func TestNormalize_YearlessNumericDateInvalid(t *testing.T) {
	n := newTestNormalizer()

	for _, text := range []string{"13/07", "02/30"} {
		t.Run(text, func(t *testing.T) {
			_, err := n.Normalize(context.Background(), text, 30*time.Minute)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	n := newTestNormalizer()

	for _, text := range []string{"asdfgh", "", "   "} {
		t.Run(text, func(t *testing.T) {
			_, err := n.Normalize(context.Background(), text, 30*time.Minute)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrParse))

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, text, perr.Input)
		})
	}
}

func TestNormalizeRange(t *testing.T) {
	n := newTestNormalizer()
	ctx := context.Background()

	t.Run("explicit end", func(t *testing.T) {
		iv, err := n.NormalizeRange(ctx, "2025-07-03 15:00", "2025-07-03 16:15", 30*time.Minute)
		require.NoError(t, err)
		assert.True(t, at(3, 16, 15).Equal(iv.End))
	})

	t.Run("end clock on start day", func(t *testing.T) {
		iv, err := n.NormalizeRange(ctx, "2025-07-03 15:00", "5pm", 30*time.Minute)
		require.NoError(t, err)
		assert.True(t, at(3, 17, 0).Equal(iv.End), "end = %s", iv.End)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := n.NormalizeRange(ctx, "2025-07-03 15:00", "2025-07-03 14:00", 30*time.Minute)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("end equals start", func(t *testing.T) {
		_, err := n.NormalizeRange(ctx, "2025-07-03 15:00", "2025-07-03 15:00", 30*time.Minute)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("no end and no default", func(t *testing.T) {
		_, err := n.NormalizeRange(ctx, "2025-07-03 15:00", "", 0)
		assert.ErrorIs(t, err, ErrParse)
	})

	t.Run("unparseable end", func(t *testing.T) {
		_, err := n.NormalizeRange(ctx, "2025-07-03 15:00", "qwerty", 30*time.Minute)
		assert.ErrorIs(t, err, ErrParse)
	})
}

func TestParseDay(t *testing.T) {
	n := newTestNormalizer()

	day, err := n.ParseDay(context.Background(), "2025-07-03 15:45")
	require.NoError(t, err)
	assert.True(t, at(3, 0, 0).Equal(day))

	day, err = n.ParseDay(context.Background(), "tomorrow")
	require.NoError(t, err)
	assert.True(t, at(2, 0, 0).Equal(day))
}

func TestNormalize_CancelledContext(t *testing.T) {
	n := newTestNormalizer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.Normalize(ctx, "2025-07-03 15:00", 30*time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNow(t *testing.T) {
	n := newTestNormalizer()
	assert.Equal(t, fixedNow(), n.Now())
	assert.Equal(t, ist, n.Location())
}
