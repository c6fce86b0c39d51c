package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// LoginRateRepo counts login attempts in fixed windows. The counter and
// its remaining TTL travel in one pipeline round trip; a counter without
// a TTL (fresh, or orphaned by a crash between INCR and EXPIRE) gets the
// window re-armed so a stuck key can never block logins forever.
type LoginRateRepo struct {
	client *goredis.Client
}

func NewLoginRateRepo(client *goredis.Client) *LoginRateRepo {
	return &LoginRateRepo{client: client}
}

func (r *LoginRateRepo) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid login rate window")
	}

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("count login attempt: %w", err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("arm login window ttl: %w", err)
		}
		remaining = window
	}

	return incr.Val(), remaining, nil
}
