package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ravlin/whereabouts/internal/timeutil"
)

func TestRateLimiterEnforcesLimit(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(3, time.Minute, clock)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d within the limit", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// A different client has its own window.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	rl := NewRateLimiter(2, time.Minute, clock)

	assert.True(t, rl.Allow("10.0.0.1"))
	clock.Advance(30 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// The first request falls out of the window; one slot frees up.
	clock.Advance(31 * time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
}
