package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle counts failed login attempts per nickname+IP in Redis.
type Throttle struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewThrottle constructs a Throttle.
func NewThrottle(client *redis.Client, limit int, window time.Duration) *Throttle {
	return &Throttle{client: client, limit: int64(limit), window: window}
}

// Allow reports whether another login attempt is permitted. Redis outages
// fail open: login availability wins over throttling.
func (t *Throttle) Allow(ctx context.Context, nickname, ip string) bool {
	if t == nil || t.client == nil {
		return true
	}
	n, err := t.client.Get(ctx, t.key(nickname, ip)).Int64()
	if err != nil {
		return true
	}
	return n < t.limit
}

// RecordFailure bumps the failed-attempt counter.
func (t *Throttle) RecordFailure(ctx context.Context, nickname, ip string) {
	if t == nil || t.client == nil {
		return
	}
	key := t.key(nickname, ip)
	n, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	if n == 1 {
		t.client.Expire(ctx, key, t.window)
	}
}

// Reset clears the counter after a successful login.
func (t *Throttle) Reset(ctx context.Context, nickname, ip string) {
	if t == nil || t.client == nil {
		return
	}
	t.client.Del(ctx, t.key(nickname, ip))
}

func (t *Throttle) key(nickname, ip string) string {
	return "login_attempts:" + nickname + ":" + ip
}
