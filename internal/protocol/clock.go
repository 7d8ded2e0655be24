package protocol

// Wraparound detection thresholds as fractions of the raw tick maximum.
const (
	armThreshold  = 0.6
	wrapThreshold = 0.4
)

// TickClock rebuilds monotonic seconds from device ticks that wrap at
// rawMax.
//
// Ticks above 60% of rawMax arm the clock; the next armed sample below 40%
// counts one wraparound and disarms it. Samples must be fed in stream order.
//
// Not safe for concurrent use: the decoder owns its clock.
type TickClock struct {
	rawMax    uint64
	msPerTick float64
	overflows uint64
	afterHalf bool
}

// NewTickClock creates a clock for a counter of period rawMax ticks, each
// msPerTick milliseconds long.
func NewTickClock(rawMax uint64, msPerTick float64) *TickClock {
	return &TickClock{rawMax: rawMax, msPerTick: msPerTick}
}

// Seconds converts the next tick sample to seconds since the first epoch.
func (c *TickClock) Seconds(ticks uint32) float64 {
	raw := float64(ticks)
	period := float64(c.rawMax)

	if c.afterHalf && raw < wrapThreshold*period {
		c.overflows++
		c.afterHalf = false
	}
	if raw > armThreshold*period {
		c.afterHalf = true
	}

	total := float64(c.overflows)*period + raw
	return total * c.msPerTick / 1000
}

// Overflows returns the number of wraparounds observed so far.
func (c *TickClock) Overflows() uint64 {
	return c.overflows
}
