package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/torque-erp/torque-erp/internal/auth"
)

func TestThrottleBlocksAfterLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	throttle := auth.NewThrottle(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, throttle.Allow(ctx, "jdoe", "10.0.0.1"))
		throttle.RecordFailure(ctx, "jdoe", "10.0.0.1")
	}
	assert.False(t, throttle.Allow(ctx, "jdoe", "10.0.0.1"))

	// A different source address keeps its own budget.
	assert.True(t, throttle.Allow(ctx, "jdoe", "10.0.0.2"))

	throttle.Reset(ctx, "jdoe", "10.0.0.1")
	assert.True(t, throttle.Allow(ctx, "jdoe", "10.0.0.1"))
}

func TestThrottleWindowExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	throttle := auth.NewThrottle(client, 1, time.Minute)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "jdoe", "10.0.0.1")
	assert.False(t, throttle.Allow(ctx, "jdoe", "10.0.0.1"))

	mr.FastForward(2 * time.Minute)
	assert.True(t, throttle.Allow(ctx, "jdoe", "10.0.0.1"))
}

func TestThrottleFailsOpenWithoutRedis(t *testing.T) {
	var throttle *auth.Throttle
	assert.True(t, throttle.Allow(context.Background(), "jdoe", "10.0.0.1"))
}
