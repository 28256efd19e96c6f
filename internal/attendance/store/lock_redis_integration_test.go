//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/attendance/store"
	"gymdesk/pkg/platform/sentinel"
	"gymdesk/pkg/testutil/containers"
)

func TestRedisLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	locker := store.NewRedisLocker(rc.Client, time.Second)

	t.Run("second holder is refused until release", func(t *testing.T) {
		release, err := locker.Acquire(ctx, "member:a")
		require.NoError(t, err)

		_, err = locker.Acquire(ctx, "member:a")
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		require.NoError(t, release(ctx))
		again, err := locker.Acquire(ctx, "member:a")
		require.NoError(t, err)
		require.NoError(t, again(ctx))
	})

	t.Run("stale release does not drop a newer holder", func(t *testing.T) {
		stale, err := locker.Acquire(ctx, "member:b")
		require.NoError(t, err)

		require.Eventually(t, func() bool {
			_, err := locker.Acquire(ctx, "member:b")
			return err == nil
		}, 3*time.Second, 100*time.Millisecond)

		require.NoError(t, stale(ctx))
		_, err = locker.Acquire(ctx, "member:b")
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})
}
