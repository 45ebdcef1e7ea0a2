package backend

import "time"

// SystemClock wraps time.Now for production use.
type SystemClock struct{}

// clockStart anchors SystemClock readings; time.Since measures against its
// monotonic clock reading, so wall-clock adjustments do not affect them.
var clockStart = time.Now()

// NowNanos returns the monotonic nanoseconds elapsed since package init.
func (SystemClock) NowNanos() int64 { return int64(time.Since(clockStart)) }

// FakeClock is a deterministic Clock for tests: NowNanos returns whatever
// was last set via Advance, starting at zero.
type FakeClock struct {
	nanos int64
}

// Advance moves the fake clock forward by delta nanoseconds and returns
// the new reading.
func (c *FakeClock) Advance(delta int64) int64 {
	c.nanos += delta
	return c.nanos
}

// NowNanos implements Clock.
func (c *FakeClock) NowNanos() int64 { return c.nanos }
