package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	// a Wednesday
	now := time.Date(2026, 10, 14, 15, 30, 0, 0, time.Local)
	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.Local) }

	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", day(10, 14)},
		{" Tomorrow ", day(10, 15)},
		{"yesterday", day(10, 13)},
		{"fri", day(10, 16)},
		{"wednesday", day(10, 21)},
		{"nextweek", day(10, 21)},
		{"2026-01-15", day(1, 15)},
		{"12/24/2026", day(12, 24)},
		{"Mar 3, 2026", day(3, 3)},
		{"Jan 2", day(1, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := parseDate("someday", now)
	assert.ErrorContains(t, err, "cannot read date")
}

func TestEndOfDay(t *testing.T) {
	start := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	end := endOfDay(start)
	assert.Equal(t, 14, end.Day())
	assert.True(t, end.Add(time.Nanosecond).Equal(start.AddDate(0, 0, 1)))
}

func TestFormatDay(t *testing.T) {
	assert.Empty(t, formatDay(nil))
	d := time.Date(2026, 3, 9, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "2026-03-09", formatDay(&d))
}
