package montime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestElapsedMovesForward tests that elapsed time is monotonic
func TestElapsedMovesForward(t *testing.T) {
	c := NewClock()

	first := c.Elapsed()
	time.Sleep(time.Millisecond)
	second := c.Elapsed()

	assert.GreaterOrEqual(t, first, time.Duration(0))
	assert.Greater(t, second, first)
}

// TestExpiresAt tests that expiry lands TTL past now
func TestExpiresAt(t *testing.T) {
	c := NewClock()

	expiry := c.ExpiresAt(time.Second)
	now := c.Elapsed()

	assert.Greater(t, expiry, now)
	assert.LessOrEqual(t, expiry-now, time.Second)
}
