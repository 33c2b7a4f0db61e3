package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryRateLimiter_AllowsUpToMax(t *testing.T) {
	limiter := NewInMemoryRateLimiter(3, time.Minute)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		result := limiter.CheckAndRecord("10.0.0.1")
		assert.True(t, result.Allowed, "request %d", i)
	}

	result := limiter.CheckAndRecord("10.0.0.1")
	assert.False(t, result.Allowed)
	assert.GreaterOrEqual(t, result.WaitSeconds, 1)
}

func TestInMemoryRateLimiter_TracksIPsIndependently(t *testing.T) {
	limiter := NewInMemoryRateLimiter(1, time.Minute)
	defer limiter.Stop()

	assert.True(t, limiter.CheckAndRecord("10.0.0.1").Allowed)
	assert.False(t, limiter.CheckAndRecord("10.0.0.1").Allowed)
	assert.True(t, limiter.CheckAndRecord("10.0.0.2").Allowed)
}

func TestInMemoryRateLimiter_WindowExpires(t *testing.T) {
	limiter := NewInMemoryRateLimiter(1, 30*time.Millisecond)
	defer limiter.Stop()

	assert.True(t, limiter.CheckAndRecord("10.0.0.1").Allowed)
	assert.False(t, limiter.CheckAndRecord("10.0.0.1").Allowed)

	time.Sleep(40 * time.Millisecond)

	assert.True(t, limiter.CheckAndRecord("10.0.0.1").Allowed)
}
