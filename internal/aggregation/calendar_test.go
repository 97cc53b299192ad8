package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfWeekIsSunday(t *testing.T) {
	e := newEngine()
	start := e.StartOfWeek(wednesday)
	assert.Equal(t, time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC), start)

	sunday := time.Date(2024, time.May, 12, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, start, e.StartOfWeek(sunday))
}

func TestBusinessDaysInMonth(t *testing.T) {
	assert.Equal(t, 23, BusinessDaysInMonth(2024, time.May))
	assert.Equal(t, 21, BusinessDaysInMonth(2024, time.February))
	assert.Equal(t, 21, BusinessDaysInMonth(2024, time.September))
}

func TestDayBoundsHalfOpen(t *testing.T) {
	e := newEngine()
	start, end := e.DayBounds(wednesday)
	assert.True(t, within(start, start, end))
	assert.False(t, within(end, start, end))
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestDayKeyUsesEngineLocation(t *testing.T) {
	e := New(DefaultPolicy(), time.FixedZone("WIB", 7*3600))
	late := time.Date(2024, time.May, 14, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-15", e.DayKey(late))

	day, err := e.ParseDay("2024-05-15")
	require.NoError(t, err)
	assert.Equal(t, day, e.StartOfDay(late))
}

func TestTrailingWindowStartIsNotTruncated(t *testing.T) {
	e := newEngine()
	assert.Equal(t, time.Date(2024, time.April, 15, 14, 30, 0, 0, time.UTC), e.TrailingWindowStart(wednesday))
}
