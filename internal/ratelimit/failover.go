package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gymdesk/pkg/platform/circuit"
)

const defaultRetryInterval = 5 * time.Second

// FailoverLimiter checks the primary limiter and switches to the fallback
// while the primary keeps failing. When the breaker is open the primary is
// retried at most once per retry interval; other requests use the fallback.
type FailoverLimiter struct {
	primary  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	logger   *slog.Logger

	retryInterval time.Duration
	mu            sync.Mutex
	lastRetry     time.Time
	now           func() time.Time
}

func NewFailover(primary, fallback Limiter, breaker *circuit.Breaker, logger *slog.Logger) *FailoverLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailoverLimiter{
		primary:       primary,
		fallback:      fallback,
		breaker:       breaker,
		logger:        logger,
		retryInterval: defaultRetryInterval,
		now:           time.Now,
	}
}

// Degraded reports whether checks are currently served by the fallback.
func (l *FailoverLimiter) Degraded() bool {
	return l.breaker.IsOpen()
}

func (l *FailoverLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	if l.breaker.IsOpen() && !l.retryDue() {
		return l.fallback.Allow(ctx, key, limit, window)
	}

	result, err := l.primary.Allow(ctx, key, limit, window)
	if err != nil {
		_, change := l.breaker.RecordFailure()
		if change.Opened {
			l.logger.WarnContext(ctx, "rate limiter degraded to in-memory fallback",
				"breaker", l.breaker.Name(),
				"error", err,
			)
		}
		return l.fallback.Allow(ctx, key, limit, window)
	}
	if _, change := l.breaker.RecordSuccess(); change.Closed {
		l.logger.InfoContext(ctx, "rate limiter recovered", "breaker", l.breaker.Name())
	}
	return result, nil
}

func (l *FailoverLimiter) retryDue() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastRetry) < l.retryInterval {
		return false
	}
	l.lastRetry = now
	return true
}
