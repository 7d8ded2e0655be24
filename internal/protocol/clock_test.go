package protocol

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/emtrace/internal/testutil"
)

func TestTickClock_NoWrap(t *testing.T) {
	c := NewTickClock(1000, 1)
	assert.InDelta(t, 0.1, c.Seconds(100), 1e-12)
	assert.InDelta(t, 0.5, c.Seconds(500), 1e-12)
	assert.Equal(t, uint64(0), c.Overflows())
}

func TestTickClock_SingleWrap(t *testing.T) {
	c := NewTickClock(1000, 1)

	before := c.Seconds(950)
	after := c.Seconds(50)

	assert.InDelta(t, 0.95, before, 1e-12)
	assert.InDelta(t, 1.05, after, 1e-12)
	assert.Greater(t, after, before)
	assert.Equal(t, uint64(1), c.Overflows())
}

func TestTickClock_DropWithoutArmingIsNotAWrap(t *testing.T) {
	c := NewTickClock(1000, 1)
	c.Seconds(500)
	c.Seconds(100)
	assert.Equal(t, uint64(0), c.Overflows())
}

func TestTickClock_DisarmsAfterWrap(t *testing.T) {
	c := NewTickClock(1000, 1)
	c.Seconds(700)
	c.Seconds(10)
	c.Seconds(20)
	c.Seconds(30)
	assert.Equal(t, uint64(1), c.Overflows())
}

func TestTickClock_MsPerTick(t *testing.T) {
	c := NewTickClock(DefaultTimestampRawMax, DefaultMsPerTick)
	assert.InDelta(t, 1.0, c.Seconds(32768), 1e-12)
}

func TestProperty_TickClockMonotonicUnderWraparound(t *testing.T) {
	const rawMax = 1 << 16

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	// Steps below 35% of the period guarantee a sample lands in the armed
	// band before every wrap and below the wrap threshold right after it.
	properties.Property("reconstructed time is strictly increasing and exact", prop.ForAll(
		func(start uint64, steps []uint64) bool {
			counter := testutil.NewTickCounter(rawMax, start)
			clock := NewTickClock(rawMax, 1)

			prev := clock.Seconds(counter.Raw())
			if prev != float64(start)/1000 {
				return false
			}
			for _, step := range steps {
				now := clock.Seconds(counter.Advance(step))
				if now <= prev {
					return false
				}
				if now != float64(counter.Total())/1000 {
					return false
				}
				prev = now
			}
			return true
		},
		gen.UInt64Range(0, rawMax/4),
		gen.SliceOf(gen.UInt64Range(1, rawMax*35/100)),
	))

	properties.TestingRun(t)
}
