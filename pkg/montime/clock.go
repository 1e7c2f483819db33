package montime

import "time"

// Clock provides monotonic time since it was created.
// time.Since uses the monotonic reading of the start time under the hood,
// so elapsed durations always move forward even if wall-clock time is
// stepped backwards. All lease expiries are expressed as elapsed durations
// against one clock rather than as wall-clock instants.
type Clock struct {
	start time.Time
}

func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// duration since the clock was created; monotonic, always moves forward
func (c *Clock) Elapsed() time.Duration {
	return time.Since(c.start)
}

// returns the expiry point for a lease of the given duration,
// expressed as monotonic time since clock creation
func (c *Clock) ExpiresAt(d time.Duration) time.Duration {
	return c.Elapsed() + d
}
