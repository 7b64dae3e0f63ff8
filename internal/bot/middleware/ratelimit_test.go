package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()

	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))

	// Лимит считается на игрока, не глобально
	assert.True(t, rl.Allow(2))
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 30*time.Millisecond)
	defer rl.Close()

	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))

	time.Sleep(40 * time.Millisecond)
	assert.True(t, rl.Allow(1))
}
