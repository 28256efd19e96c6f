package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gymdesk:ratelimit:"

// slidingWindowScript trims the window, admits the request when under the
// limit and returns {allowed, count, oldest_ms}. Runs atomically in Redis.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local allowed = 0
if count < limit then
	redis.call("ZADD", key, now, ARGV[4])
	count = count + 1
	allowed = 1
end
redis.call("PEXPIRE", key, window)
local oldest = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
local oldestScore = now
if oldest[2] then
	oldestScore = tonumber(oldest[2])
end
return {allowed, count, oldestScore}
`)

// RedisLimiter shares sliding windows across replicas through sorted sets.
type RedisLimiter struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now()
	raw, err := slidingWindowScript.Run(ctx, l.client, []string{keyPrefix + key},
		now.UnixMilli(), window.Milliseconds(), limit, strconv.FormatInt(now.UnixNano(), 10)+"-"+uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("check rate limit: %w", err)
	}
	if len(raw) != 3 {
		return Result{}, fmt.Errorf("check rate limit: unexpected reply %v", raw)
	}

	count := int(raw[1])
	result := Result{
		Allowed: raw[0] == 1,
		Limit:   limit,
		ResetAt: time.UnixMilli(raw[2]).Add(window),
	}
	if result.Allowed {
		result.Remaining = limit - count
	}
	return result, nil
}
