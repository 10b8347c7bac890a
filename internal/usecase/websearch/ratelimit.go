package websearch

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum delay between outbound requests per provider.
// The check-then-update of the last-request timestamp happens under a single
// mutex so two concurrent callers cannot both bypass the delay; the actual
// waiting happens outside the lock and blocks only the calling operation.
type Limiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	minDelay time.Duration

	// Injectable for deterministic tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter with the given minimum inter-request delay.
func NewLimiter(minDelay time.Duration) *Limiter {
	return &Limiter{
		last:     make(map[string]time.Time),
		minDelay: minDelay,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Wait blocks until the provider's slot is at least minDelay after the
// previous one, then claims it. Returns early only on context cancellation.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	l.mu.Lock()
	now := l.now()
	slot := now
	if prev, ok := l.last[provider]; ok {
		if next := prev.Add(l.minDelay); next.After(slot) {
			slot = next
		}
	}
	l.last[provider] = slot
	l.mu.Unlock()

	if wait := slot.Sub(now); wait > 0 {
		return l.sleep(ctx, wait)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
