package redis

import (
	"context"
	"testing"
	"time"
)

func TestIncrementWindowCountsAndArmsTTL(t *testing.T) {
	repo := NewLoginRateRepo(newTestClient(t))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, ttl, err := repo.IncrementWindow(ctx, "rate:login:user:teacher01", time.Minute)
		if err != nil {
			t.Fatalf("increment window: %v", err)
		}
		if count != want {
			t.Fatalf("expected count %d, got %d", want, count)
		}
		if ttl <= 0 || ttl > time.Minute {
			t.Fatalf("unexpected ttl %v", ttl)
		}
	}
}

func TestIncrementWindowRepairsOrphanedCounter(t *testing.T) {
	client := newTestClient(t)
	repo := NewLoginRateRepo(client)
	ctx := context.Background()

	// A counter left without a TTL, as after a crash between INCR and
	// EXPIRE.
	if err := client.Set(ctx, "rate:login:ip:10.0.0.1", 7, 0).Err(); err != nil {
		t.Fatalf("seed orphaned counter: %v", err)
	}

	count, ttl, err := repo.IncrementWindow(ctx, "rate:login:ip:10.0.0.1", time.Minute)
	if err != nil {
		t.Fatalf("increment window: %v", err)
	}
	if count != 8 {
		t.Fatalf("expected count 8, got %d", count)
	}
	if ttl != time.Minute {
		t.Fatalf("orphaned counter must get the window re-armed, got ttl %v", ttl)
	}
	if got := client.TTL(ctx, "rate:login:ip:10.0.0.1").Val(); got <= 0 {
		t.Fatalf("key still has no ttl: %v", got)
	}
}

func TestIncrementWindowRejectsBadInput(t *testing.T) {
	repo := NewLoginRateRepo(newTestClient(t))

	if _, _, err := repo.IncrementWindow(context.Background(), "", time.Minute); err == nil {
		t.Fatalf("expected an error for an empty key")
	}
	if _, _, err := repo.IncrementWindow(context.Background(), "rate:x", 0); err == nil {
		t.Fatalf("expected an error for a zero window")
	}
}
