package util

import (
	"context"
	"sync"
	"time"
)

// pollInterval is how often Wait re-checks for an available token.
const pollInterval = 10 * time.Millisecond

// RateLimiter is a token-bucket limiter with a bucket size of one,
// replenished at a fixed per-minute rate. Public market-data APIs meter
// per minute, so the constructor takes that unit directly.
type RateLimiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	tokens float64
	last   time.Time
}

// NewRateLimiter creates a RateLimiter that allows perMinute operations
// per minute. The first call to Wait never blocks.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		rate:   float64(perMinute) / 60.0,
		tokens: 1,
		last:   time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.take() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// take consumes a token if one has accrued.
func (rl *RateLimiter) take() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.tokens += now.Sub(rl.last).Seconds() * rl.rate
	if rl.tokens > 1 {
		rl.tokens = 1
	}
	rl.last = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}
