package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gymdesk/pkg/platform/sentinel"
)

// Release frees a lock obtained from a Locker. Safe to call once.
type Release func(ctx context.Context) error

// InMemoryLocker serializes check-ins per identity within one process.
type InMemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{held: make(map[string]struct{})}
}

// Acquire takes key or fails with sentinel.ErrConflict when another caller holds it.
func (l *InMemoryLocker) Acquire(_ context.Context, key string) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, fmt.Errorf("lock %s: %w", key, sentinel.ErrConflict)
	}
	l.held[key] = struct{}{}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes check-ins per identity across instances.
// Locks expire after ttl so a crashed holder cannot wedge an identity.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: "gymdesk:checkin:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	token := uuid.NewString()
	redisKey := l.prefix + key
	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", key, sentinel.ErrConflict)
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
