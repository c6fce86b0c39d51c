package session

import (
	"fmt"
	"testing"
	"time"
)

func TestShouldRefreshThrottlesWithinWindow(t *testing.T) {
	cache := NewLivenessCache(10)
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	if !cache.ShouldRefresh("tok-1", now, window) {
		t.Fatalf("first check must refresh")
	}
	if cache.ShouldRefresh("tok-1", now.Add(time.Minute), window) {
		t.Fatalf("second check within window must not refresh")
	}
	if !cache.ShouldRefresh("tok-1", now.Add(6*time.Minute), window) {
		t.Fatalf("check past the window must refresh again")
	}
}

func TestShouldRefreshIsPerKey(t *testing.T) {
	cache := NewLivenessCache(10)
	now := time.Now()

	if !cache.ShouldRefresh("tok-a", now, time.Minute) {
		t.Fatalf("first key must refresh")
	}
	if !cache.ShouldRefresh("tok-b", now, time.Minute) {
		t.Fatalf("independent key must refresh")
	}
}

func TestCacheStaysBounded(t *testing.T) {
	cache := NewLivenessCache(3)
	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("tok-%d", i)
		cache.ShouldRefresh(key, base.Add(time.Duration(i)*time.Second), time.Minute)
	}

	if got := cache.Len(); got > 3 {
		t.Fatalf("cache exceeded its bound: len=%d", got)
	}
}

func TestSweepOlderThanDropsStaleEntries(t *testing.T) {
	cache := NewLivenessCache(10)
	base := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	cache.ShouldRefresh("stale", base, time.Minute)
	cache.ShouldRefresh("fresh", base.Add(time.Hour), time.Minute)

	removed := cache.SweepOlderThan(base.Add(30 * time.Minute))
	if removed != 1 {
		t.Fatalf("unexpected removed count: got %d want 1", removed)
	}
	if got := cache.Len(); got != 1 {
		t.Fatalf("unexpected cache size after sweep: %d", got)
	}
}

func TestForgetRemovesEntry(t *testing.T) {
	cache := NewLivenessCache(10)
	now := time.Now()

	cache.ShouldRefresh("tok-1", now, time.Hour)
	cache.Forget("tok-1")

	if !cache.ShouldRefresh("tok-1", now, time.Hour) {
		t.Fatalf("forgotten key must refresh immediately")
	}
}
