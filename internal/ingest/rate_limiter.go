package ingest

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time so the limiter can be driven in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RateLimiter admits at most maxRequests calls in any sliding window.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	clock       Clock

	mu    sync.Mutex
	stamp []time.Time // ascending
}

// NewRateLimiter creates a sliding-window limiter
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(maxRequests, window, realClock{})
}

// NewRateLimiterWithClock creates a limiter on an injected clock
func NewRateLimiterWithClock(maxRequests int, window time.Duration, clock Clock) *RateLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		clock:       clock,
		stamp:       make([]time.Time, 0, maxRequests),
	}
}

// Acquire blocks until a slot is free in the window, then records the call.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := rl.tryAcquire()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rl.clock.After(wait):
		}
	}
}

// tryAcquire records a call if there is room, otherwise returns how long
// until the oldest call leaves the window.
func (rl *RateLimiter) tryAcquire() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	rl.prune(now)

	if len(rl.stamp) < rl.maxRequests {
		rl.stamp = append(rl.stamp, now)
		return 0, true
	}

	wait := rl.stamp[0].Add(rl.window).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

func (rl *RateLimiter) prune(now time.Time) {
	cut := 0
	for cut < len(rl.stamp) && now.Sub(rl.stamp[cut]) >= rl.window {
		cut++
	}
	if cut > 0 {
		rl.stamp = append(rl.stamp[:0], rl.stamp[cut:]...)
	}
}

// Remaining reports how many calls are admissible right now.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.prune(rl.clock.Now())
	return rl.maxRequests - len(rl.stamp)
}
