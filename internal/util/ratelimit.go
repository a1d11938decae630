package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces calls to at most perMinute per minute by enforcing a
// minimum interval between grants. The first Wait returns immediately.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewRateLimiter creates a RateLimiter allowing perMinute calls per minute.
// Non-positive rates are clamped to one call per minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{interval: time.Minute / time.Duration(perMinute)}
}

// Wait blocks until the caller's slot opens or the context is cancelled.
// Each call claims the next slot before sleeping, so concurrent waiters are
// spaced one interval apart in arrival order.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()
	wait := rl.next.Sub(now)
	if wait > 0 {
		rl.next = rl.next.Add(rl.interval)
	} else {
		wait = 0
		rl.next = now.Add(rl.interval)
	}
	rl.mu.Unlock()

	if wait == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
