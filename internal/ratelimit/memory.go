package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding-window log per key in process memory.
// It suits a single instance; use RedisLimiter when several share limits.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy: policy,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) CheckAndIncrement(ctx context.Context, key string) error {
	limit := l.policy.For(key)
	now := l.now()
	windowStart := now.Add(-limit.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.hits[key]
	kept := hits[:0]
	for _, h := range hits {
		if h.After(windowStart) {
			kept = append(kept, h)
		}
	}

	if len(kept) >= limit.Requests {
		l.hits[key] = kept
		retryAfter := limit.Window
		if len(kept) > 0 {
			retryAfter = kept[0].Add(limit.Window).Sub(now)
		}
		return &ExceededError{Key: key, Limit: limit.Requests, RetryAfter: retryAfter}
	}

	l.hits[key] = append(kept, now)
	return nil
}
