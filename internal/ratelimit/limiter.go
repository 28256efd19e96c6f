// Package ratelimit throttles unauthenticated kiosk traffic per client.
//
// Limits use a sliding window: a key may make at most limit requests in any
// window-long interval. The Redis limiter shares counts across replicas; the
// in-memory limiter serves single-node deployments and Redis outages.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window admits again.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 1
	}
	return int((d + time.Second - 1) / time.Second)
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}
