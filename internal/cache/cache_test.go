package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tibprice/internal/price"
)

var cet = time.FixedZone("CET", 3600)

// hourlySeries builds a series of hourly points starting at start.
func hourlySeries(start time.Time, hours int) price.Series {
	pts := make([]price.PricePoint, hours)
	for i := range pts {
		pts[i] = price.PricePoint{Total: 0.1, StartsAt: start.Add(time.Duration(i) * time.Hour)}
	}
	return price.NewSeries(pts)
}

func TestSnapshotReturnsInitialSeries(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	c := New(hourlySeries(day, 2))
	require.Equal(t, 2, c.Snapshot().Len())
}

func TestTryInstallRequiresStrictlyNewer(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	c := New(hourlySeries(day, 2))

	require.False(t, c.TryInstall(hourlySeries(day, 2)), "equal recency must not install")
	require.False(t, c.TryInstall(hourlySeries(day.Add(-24*time.Hour), 2)), "older must not install")
	require.True(t, c.TryInstall(hourlySeries(day, 3)))
	require.Equal(t, 3, c.Snapshot().Len())
}

func TestAwaitNewerThanReturnsImmediately(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	c := New(hourlySeries(day, 2))

	got, ok := c.AwaitNewerThan(t.Context(), day, time.Millisecond)
	require.True(t, ok)
	require.Equal(t, 2, got.Len())
}

func TestAwaitNewerThanTimesOut(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	c := New(hourlySeries(day, 2))

	start := time.Now()
	got, ok := c.AwaitNewerThan(t.Context(), day.Add(time.Hour), 20*time.Millisecond)
	require.False(t, ok)
	require.Equal(t, 2, got.Len(), "timeout still returns the current series")
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestAwaitNewerThanWakesOnInstall(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	c := New(hourlySeries(day, 2))

	go func() {
		time.Sleep(10 * time.Millisecond)
		c.TryInstall(hourlySeries(day, 3))
	}()

	got, ok := c.AwaitNewerThan(t.Context(), day.Add(time.Hour), 5*time.Second)
	require.True(t, ok)
	require.Equal(t, 3, got.Len())
}

func TestAwaitNewerThanRechecksAfterWake(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	c := New(hourlySeries(day, 2))

	// The install wakes the waiter but does not pass its baseline, so the
	// wait must continue until the timeout.
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.TryInstall(hourlySeries(day, 3))
	}()

	start := time.Now()
	_, ok := c.AwaitNewerThan(t.Context(), day.Add(6*time.Hour), 50*time.Millisecond)
	require.False(t, ok)
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestAwaitNewerThanHonorsContext(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	c := New(hourlySeries(day, 2))

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, ok := c.AwaitNewerThan(ctx, day.Add(time.Hour), time.Minute)
	require.False(t, ok)
	require.Less(t, time.Since(start), 10*time.Second)
}
