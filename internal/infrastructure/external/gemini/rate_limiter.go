package gemini

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER - Token Bucket implementation
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter keeps outgoing calls under the free-tier quota of the API.
type RateLimiter struct {
	mu sync.Mutex

	maxTokens  float64 // Maximum tokens in the bucket
	refillRate float64 // Tokens added per second
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewRateLimiter allows perMinute calls per minute with bursts of up to
// burst calls. perMinute <= 0 returns nil, which never limits.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		maxTokens:  float64(burst),
		refillRate: float64(perMinute) / 60,
		tokens:     float64(burst),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	for {
		wait, ok := rl.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAllow takes a token without blocking.
func (rl *RateLimiter) TryAllow() bool {
	if rl == nil {
		return true
	}
	_, ok := rl.tryAcquire()
	return ok
}

func (rl *RateLimiter) tryAcquire() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillTokens()
	if rl.tokens < 1.0 {
		missing := 1.0 - rl.tokens
		return time.Duration(missing / rl.refillRate * float64(time.Second)), false
	}
	rl.tokens--
	return 0, true
}

// refillTokens must be called with lock held.
func (rl *RateLimiter) refillTokens() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}
