// SPDX-License-Identifier: EPL-2.0

package synth

import (
	"math"

	"github.com/ik5/almidi/midi"
)

// TicksPerSecond is the resolution of event times: one tick is a
// microsecond.
const TicksPerSecond = 1_000_000

// clock correlates event ticks with rendered samples. Counters are kept in
// fractional samples so rate changes keep elapsed time exact.
type clock struct {
	samplesPerTick float64

	last uint64 // time of the last processed event
	next uint64 // time of the next pending event, midi.NoEvent if none

	sinceLast float64 // samples rendered since last
	toNext    float64 // samples left until next
}

func newClock(rate int) clock {
	c := clock{samplesPerTick: float64(rate) / TicksPerSecond}
	c.reset()
	return c
}

func (c *clock) reset() {
	c.last = 0
	c.next = midi.NoEvent
	c.sinceLast = 0
	c.toNext = 0
}

// now returns the current tick, clamped to [last, next].
func (c *clock) now() uint64 {
	t := c.last + uint64(c.sinceLast/c.samplesPerTick)
	if c.next >= c.last {
		t = min(t, c.next)
	}
	return t
}

// span returns the number of samples between ticks from and to, which may
// be negative.
func (c *clock) span(from, to uint64) float64 {
	if to >= from {
		return float64(to-from) * c.samplesPerTick
	}
	return -float64(from-to) * c.samplesPerTick
}

// schedule registers a new event at t, pulling next in if t is earlier.
func (c *clock) schedule(t uint64) {
	if t < c.next {
		c.retarget(t)
	}
}

// retarget points the clock at the next pending event.
func (c *clock) retarget(next uint64) {
	c.next = next
	c.toNext = 0
	if next != midi.NoEvent {
		c.toNext = c.span(c.last, next) - c.sinceLast
	}
}

// setRate rescales the sample counters to a new sample rate.
func (c *clock) setRate(rate int) {
	spt := float64(rate) / TicksPerSecond
	c.sinceLast = c.sinceLast * spt / c.samplesPerTick
	c.toNext = c.toNext * spt / c.samplesPerTick
	c.samplesPerTick = spt
}

// advance records n rendered samples.
func (c *clock) advance(n int) {
	c.sinceLast += float64(n)
	if c.next != midi.NoEvent {
		c.toNext -= float64(n)
	}
}

// due returns how many whole samples can be rendered before the next
// event, or -1 if there is no pending event.
func (c *clock) due() int {
	switch {
	case c.next == midi.NoEvent:
		return -1
	case c.toNext < 1:
		return 0
	case c.toNext >= math.MaxInt32:
		return math.MaxInt32
	}
	return int(c.toNext)
}

// arrive moves the clock onto the pending event and returns the tick up to
// which events are now due. The clock never moves backwards for an event
// queued in the past.
func (c *clock) arrive() uint64 {
	if c.next > c.last {
		c.sinceLast = max(c.sinceLast-c.span(c.last, c.next), 0)
		c.last = c.next
	}
	return c.last
}
