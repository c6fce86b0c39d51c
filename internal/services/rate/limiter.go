package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const loginWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter throttles login attempts per username and per source IP over
// fixed one-minute windows.
type Limiter struct {
	store       WindowStore
	perUsername int
	perIP       int
}

func NewLimiter(store WindowStore, perUsername, perIP int) *Limiter {
	if perUsername < 0 {
		perUsername = 0
	}
	if perIP < 0 {
		perIP = 0
	}

	return &Limiter{
		store:       store,
		perUsername: perUsername,
		perIP:       perIP,
	}
}

// AllowLogin returns (retryAfterSec, allowed). A zero limit disables
// that dimension.
func (l *Limiter) AllowLogin(ctx context.Context, username, ip string) (int64, bool, error) {
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	retryAfterSec := int64(0)

	if l.perUsername > 0 && strings.TrimSpace(username) != "" {
		count, ttl, err := l.store.IncrementWindow(ctx, usernameKey(username), loginWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perUsername) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if l.perIP > 0 && strings.TrimSpace(ip) != "" {
		count, ttl, err := l.store.IncrementWindow(ctx, ipKey(ip), loginWindow)
		if err != nil {
			return 0, false, err
		}
		if count > int64(l.perIP) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}

	return 0, true, nil
}

func usernameKey(username string) string {
	return "rate:login:user:" + strings.ToLower(strings.TrimSpace(username))
}

func ipKey(ip string) string {
	return "rate:login:ip:" + strings.TrimSpace(ip)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
