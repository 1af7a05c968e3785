package bclock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ticksUntilFirstAdvance(rate Rate) int {
	c := NewClock(2026, 1, 1, 0, 0, rate)
	startMinute := c.Minute
	for i := 1; ; i++ {
		c.Tick()
		if c.Minute != startMinute {
			return i
		}
	}
}

func TestRateOneX240000After600Ticks(t *testing.T) {
	require.Equal(t, 600, ticksUntilFirstAdvance(4))
}

func TestRateFourXAdvancesEvery150Ticks(t *testing.T) {
	require.Equal(t, 150, ticksUntilFirstAdvance(16))
}

func TestRateQuarterXAdvancesEvery2400Ticks(t *testing.T) {
	require.Equal(t, 2400, ticksUntilFirstAdvance(1))
}

func TestNegativeRateRunsBackwards(t *testing.T) {
	c := NewClock(2026, 1, 1, 0, 0, -4)
	for i := 0; i < 600; i++ {
		c.Tick()
	}
	require.Equal(t, 2025, c.Year)
	require.Equal(t, 12, c.Month)
	require.Equal(t, 31, c.Day)
	require.Equal(t, 23, c.Hour)
	require.Equal(t, 59, c.Minute)
}

func TestLeapYearFebruaryHas29Days(t *testing.T) {
	require.Equal(t, 29, daysInMonth(2024, 2))
	require.Equal(t, 28, daysInMonth(2023, 2))
	require.Equal(t, 28, daysInMonth(1900, 2)) // divisible by 100, not 400
	require.Equal(t, 29, daysInMonth(2000, 2)) // divisible by 400
}

func TestForwardRolloverAcrossMonthBoundary(t *testing.T) {
	c := NewClock(2026, 1, 31, 23, 59, 4)
	for i := 0; i < 600; i++ {
		c.Tick()
	}
	require.Equal(t, 2026, c.Year)
	require.Equal(t, 2, c.Month)
	require.Equal(t, 1, c.Day)
	require.Equal(t, 0, c.Hour)
	require.Equal(t, 0, c.Minute)
}

func TestForwardRolloverAcrossYearBoundary(t *testing.T) {
	c := NewClock(2026, 12, 31, 23, 59, 4)
	for i := 0; i < 600; i++ {
		c.Tick()
	}
	require.Equal(t, 2027, c.Year)
	require.Equal(t, 1, c.Month)
	require.Equal(t, 1, c.Day)
}
