package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces calls to a fixed per-minute budget. Rather than counting
// tokens it schedules each caller a slot, spacing consecutive slots by the
// budget interval; the first caller goes through immediately.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
}

// NewRateLimiter creates a RateLimiter allowing perMinute operations per
// minute. A non-positive budget disables pacing.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{}
	if perMinute > 0 {
		rl.interval = time.Minute / time.Duration(perMinute)
	}
	return rl
}

// Wait blocks until the caller's slot arrives or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	at := rl.next
	if now := time.Now(); at.Before(now) {
		at = now
	}
	rl.next = at.Add(rl.interval)
	rl.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
