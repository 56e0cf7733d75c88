package cache

import (
	"context"
	"sync"
	"time"

	"tibprice/internal/price"
)

// Cache is the shared holder of the latest price series. One background
// worker installs updates while any number of readers take snapshots or
// wait for something newer. The current series is always a fully formed
// value: installs replace it wholesale or not at all.
type Cache struct {
	mu sync.Mutex
	// series is guarded by mu. changed is closed and replaced on every
	// successful install; waiters capture it under mu so an install
	// between check and wait still wakes them.
	series  price.Series
	changed chan struct{}
}

// New creates a Cache holding the given initial series.
func New(initial price.Series) *Cache {
	return &Cache{
		series:  initial,
		changed: make(chan struct{}),
	}
}

// Snapshot returns the current series. The result is detached from the
// cache: later installs never affect it.
func (c *Cache) Snapshot() price.Series {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.series
}

// TryInstall replaces the current series when candidate is strictly newer
// and wakes all waiters. Same-or-older candidates leave the cache and its
// waiters untouched. This is the only mutation path.
func (c *Cache) TryInstall(candidate price.Series) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !candidate.IsNewerThan(c.series) {
		return false
	}
	c.series = candidate
	close(c.changed)
	c.changed = make(chan struct{})
	return true
}

// AwaitNewerThan blocks until the cached series is strictly more recent
// than baseline, the timeout elapses, or ctx is cancelled. It returns the
// current series and whether its recency now exceeds baseline. Recency is
// checked before any wait and re-checked after every wakeup; the wake
// signal itself is never trusted.
func (c *Cache) AwaitNewerThan(ctx context.Context, baseline time.Time, timeout time.Duration) (price.Series, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mu.Lock()
		series := c.series
		changed := c.changed
		c.mu.Unlock()

		if series.NewerThanInstant(baseline) {
			return series, true
		}

		select {
		case <-changed:
			// An install happened; loop to re-check against baseline.
		case <-deadline.C:
			return c.current(baseline)
		case <-ctx.Done():
			return c.current(baseline)
		}
	}
}

func (c *Cache) current(baseline time.Time) (price.Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.series, c.series.NewerThanInstant(baseline)
}
