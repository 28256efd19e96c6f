//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/pkg/testutil/containers"
)

func TestRedisLimiter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))
	l := NewRedis(rc.Client)

	for i := range 3 {
		res, err := l.Allow(ctx, "kiosk:198.51.100.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	denied, err := l.Allow(ctx, "kiosk:198.51.100.1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, denied.Allowed)
	assert.True(t, denied.ResetAt.After(time.Now()))

	ttl, err := rc.Client.PTTL(ctx, keyPrefix+"kiosk:198.51.100.1").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	short, err := l.Allow(ctx, "kiosk:short", 1, 200*time.Millisecond)
	require.NoError(t, err)
	require.True(t, short.Allowed)
	time.Sleep(300 * time.Millisecond)
	after, err := l.Allow(ctx, "kiosk:short", 1, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, after.Allowed, "window slides")
}
