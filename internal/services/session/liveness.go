package session

import (
	"sync"
	"time"
)

// LivenessCache throttles liveness-timestamp writes: one entry per
// session token holding the wall clock of the last refresh. It is owned
// by the validator's construction scope so tests can inject a fresh
// instance, and it is bounded: inserts over the cap evict the stalest
// entry, and the sweeper drops entries past the idle timeout.
type LivenessCache struct {
	mu         sync.Mutex
	entries    map[string]time.Time
	maxEntries int
}

const DefaultLivenessCacheSize = 100_000

func NewLivenessCache(maxEntries int) *LivenessCache {
	if maxEntries <= 0 {
		maxEntries = DefaultLivenessCacheSize
	}
	return &LivenessCache{
		entries:    make(map[string]time.Time),
		maxEntries: maxEntries,
	}
}

// ShouldRefresh reports whether the throttle window for key elapsed and,
// when it did, records now as the new refresh time. Concurrent callers
// for the same key race benignly: at worst one extra or one skipped
// write per window.
func (c *LivenessCache) ShouldRefresh(key string, now time.Time, window time.Duration) bool {
	if key == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	last, ok := c.entries[key]
	if ok && now.Sub(last) < window {
		return false
	}

	if !ok && len(c.entries) >= c.maxEntries {
		c.evictStalestLocked()
	}
	c.entries[key] = now
	return true
}

func (c *LivenessCache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// SweepOlderThan drops entries last refreshed before cutoff and returns
// how many were removed.
func (c *LivenessCache) SweepOlderThan(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, last := range c.entries {
		if last.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *LivenessCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LivenessCache) evictStalestLocked() {
	var (
		stalestKey string
		stalestAt  time.Time
		found      bool
	)
	for key, at := range c.entries {
		if !found || at.Before(stalestAt) {
			stalestKey = key
			stalestAt = at
			found = true
		}
	}
	if found {
		delete(c.entries, stalestKey)
	}
}
