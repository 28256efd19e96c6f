package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNowFallsBackToWallClock(t *testing.T) {
	before := time.Now()
	got := Now(context.Background())
	assert.False(t, got.Before(before))
}

func TestWithTime(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	ctx := WithTime(context.Background(), fixed)
	assert.Equal(t, fixed, Now(ctx))
}

func TestStaff(t *testing.T) {
	assert.Equal(t, Principal{}, Staff(context.Background()))

	ctx := WithStaff(context.Background(), Principal{ID: "staff-1", Role: "admin"})
	assert.Equal(t, "staff-1", Staff(ctx).ID)
	assert.Equal(t, "admin", Staff(ctx).Role)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "req-42", RequestID(WithRequestID(context.Background(), "req-42")))
}
