package ratelimit

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryLimiter keeps per-key counters in process memory. Used when no redis
// is configured.
type MemoryLimiter struct {
	counters *cache.Cache
	window   Window
}

func NewMemoryLimiter(w Window) *MemoryLimiter {
	w = w.normalize()
	return &MemoryLimiter{
		counters: cache.New(w.Period, 2*w.Period),
		window:   w,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) error {
	count := 1
	if err := l.counters.Add(key, 1, l.window.Period); err != nil {
		n, incErr := l.counters.IncrementInt(key, 1)
		if incErr != nil {
			// expired between Add and Increment; start a new window
			l.counters.Set(key, 1, l.window.Period)
			n = 1
		}
		count = n
	}
	if count > l.window.Limit {
		return ErrRateLimited
	}

	return nil
}
