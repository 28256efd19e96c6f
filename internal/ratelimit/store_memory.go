package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryLimiter keeps a sliding window of request times per key.
type InMemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	now     func() time.Time
}

func NewInMemory() *InMemoryLimiter {
	return &InMemoryLimiter{windows: make(map[string][]time.Time), now: time.Now}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	hits := prune(l.windows[key], now.Add(-window))
	if len(hits) >= limit {
		l.windows[key] = hits
		return Result{Limit: limit, ResetAt: hits[0].Add(window)}, nil
	}

	hits = append(hits, now)
	l.windows[key] = hits
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(hits),
		ResetAt:   hits[0].Add(window),
	}, nil
}

// prune drops hits at or before cutoff. hits is ordered oldest first.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
