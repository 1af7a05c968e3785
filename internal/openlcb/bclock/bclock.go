// Package bclock implements the Broadcast Time accumulator (spec.md 4.11,
// 8 scenario 6): a simulated wall clock driven by the same 100ms tick as
// the rest of the core, advancing at a configurable rate relative to real
// time.
package bclock

// Rate is a Q10.2 fixed-point real-time multiplier: 4 means 1.0x, 16 means
// 4.0x, 1 means 0.25x. Negative values run the simulated clock backwards.
type Rate int16

// rolloverThreshold is the accumulator value that represents exactly one
// simulated minute. Each 100ms tick adds rate*100 to the accumulator;
// rate=4 (1.0x) therefore reaches it after 600 ticks (60 real seconds = one
// simulated minute), rate=16 (4.0x) after 150 ticks, rate=1 (0.25x) after
// 2400 ticks — all three pinned by spec.md 8 scenario 6.
const rolloverThreshold = 240000

const tickIncrementPerRateUnit = 100

// Clock is a simulated date/time plus its fractional-minute accumulator.
// Minute is the finest field tracked; Broadcast Time has no seconds field
// on the wire.
type Clock struct {
	Year   int
	Month  int // 1-12
	Day    int // 1-31
	Hour   int // 0-23
	Minute int // 0-59

	Rate        Rate
	accumulator int64
}

// NewClock constructs a Clock starting at the given date and time, running
// at rate.
func NewClock(year, month, day, hour, minute int, rate Rate) *Clock {
	return &Clock{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Rate: rate}
}

// Tick advances the accumulator by one 100ms tick's worth of simulated
// time, rolling over into one or more whole-minute advances (forward or
// backward) as needed.
func (c *Clock) Tick() {
	c.accumulator += int64(c.Rate) * tickIncrementPerRateUnit
	for c.accumulator >= rolloverThreshold {
		c.accumulator -= rolloverThreshold
		c.advanceMinute(1)
	}
	for c.accumulator <= -rolloverThreshold {
		c.accumulator += rolloverThreshold
		c.advanceMinute(-1)
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 30
	}
}

// advanceMinute moves the clock forward (delta=1) or backward (delta=-1)
// by exactly one minute, carrying into hour, day, month, and year using
// Gregorian month lengths and leap-year rules.
func (c *Clock) advanceMinute(delta int) {
	if delta > 0 {
		c.Minute++
		if c.Minute == 60 {
			c.Minute = 0
			c.Hour++
			if c.Hour == 24 {
				c.Hour = 0
				c.Day++
				if c.Day > daysInMonth(c.Year, c.Month) {
					c.Day = 1
					c.Month++
					if c.Month == 13 {
						c.Month = 1
						c.Year++
					}
				}
			}
		}
		return
	}

	c.Minute--
	if c.Minute < 0 {
		c.Minute = 59
		c.Hour--
		if c.Hour < 0 {
			c.Hour = 23
			c.Day--
			if c.Day < 1 {
				c.Month--
				if c.Month < 1 {
					c.Month = 12
					c.Year--
				}
				c.Day = daysInMonth(c.Year, c.Month)
			}
		}
	}
}
