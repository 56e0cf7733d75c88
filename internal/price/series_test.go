package price

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var cet = time.FixedZone("CET", 3600)

// hourly builds consecutive hourly points starting at start, one per total.
func hourly(start time.Time, totals ...float64) []PricePoint {
	pts := make([]PricePoint, len(totals))
	for i, total := range totals {
		pts[i] = PricePoint{Total: total, StartsAt: start.Add(time.Duration(i) * time.Hour)}
	}
	return pts
}

// fullDay builds 24 hourly points covering the calendar day starting at
// midnight.
func fullDay(midnight time.Time) []PricePoint {
	pts := make([]PricePoint, 24)
	for i := range pts {
		pts[i] = PricePoint{Total: 0.1, StartsAt: midnight.Add(time.Duration(i) * time.Hour)}
	}
	return pts
}

func TestNewSeriesSortsPoints(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	s := NewSeries([]PricePoint{
		{Total: 0.3, StartsAt: day.Add(2 * time.Hour)},
		{Total: 0.1, StartsAt: day},
		{Total: 0.2, StartsAt: day.Add(time.Hour)},
	})

	pts := s.Points()
	require.Len(t, pts, 3)
	require.Equal(t, 0.1, pts[0].Total)
	require.Equal(t, 0.2, pts[1].Total)
	require.Equal(t, 0.3, pts[2].Total)
}

func TestPointsReturnsDetachedCopy(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	s := NewSeries(hourly(day, 0.1))

	pts := s.Points()
	pts[0].Total = 9.9
	require.Equal(t, 0.1, s.Points()[0].Total)
}

func TestMergeCombinesBothDays(t *testing.T) {
	today := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	tomorrow := today.AddDate(0, 0, 1)

	s := Merge(hourly(today, 0.1, 0.2), hourly(tomorrow, 0.3, 0.4))
	require.Equal(t, 4, s.Len())

	last, ok := s.Recency()
	require.True(t, ok)
	require.True(t, last.Equal(tomorrow.Add(time.Hour)))
}

func TestRecencyOfEmptySeries(t *testing.T) {
	_, ok := Series{}.Recency()
	require.False(t, ok)
}

func TestActivePrice(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	s := NewSeries(hourly(day, 0.1, 0.2, 0.3))

	p, ok := s.ActivePrice(day.Add(30 * time.Minute))
	require.True(t, ok)
	require.Equal(t, 0.1, p.Total)

	// A point becomes active exactly at its start.
	p, ok = s.ActivePrice(day.Add(time.Hour))
	require.True(t, ok)
	require.Equal(t, 0.2, p.Total)

	// Before the first point nothing is active.
	_, ok = s.ActivePrice(day.Add(-time.Minute))
	require.False(t, ok)

	// The last point has no known end, so it never reports as active.
	_, ok = s.ActivePrice(day.Add(2*time.Hour + 30*time.Minute))
	require.False(t, ok)

	_, ok = Series{}.ActivePrice(day)
	require.False(t, ok)
}

func TestHasCoverageFor(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	s := NewSeries(hourly(day, 0.1, 0.2, 0.3))

	require.True(t, s.HasCoverageFor(day.Add(time.Hour)))
	require.True(t, s.HasCoverageFor(day.Add(90*time.Minute)))

	// Touching the first or last start time is not coverage.
	require.False(t, s.HasCoverageFor(day))
	require.False(t, s.HasCoverageFor(day.Add(2*time.Hour)))

	require.False(t, s.HasCoverageFor(day.Add(24*time.Hour)))
	require.False(t, Series{}.HasCoverageFor(day))
}

func TestIsNewerThan(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	older := NewSeries(hourly(day, 0.1, 0.2))
	newer := NewSeries(hourly(day.AddDate(0, 0, 1), 0.3, 0.4))

	require.True(t, newer.IsNewerThan(older))
	require.False(t, older.IsNewerThan(newer))
	require.False(t, older.IsNewerThan(older), "equal recency is not newer")
	require.True(t, older.IsNewerThan(Series{}))
	require.False(t, Series{}.IsNewerThan(older))
	require.False(t, Series{}.IsNewerThan(Series{}))
}

func TestNewerThanInstant(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	s := NewSeries(hourly(day, 0.1, 0.2))
	last := day.Add(time.Hour)

	require.True(t, s.NewerThanInstant(last.Add(-time.Second)))
	require.False(t, s.NewerThanInstant(last))
	require.False(t, s.NewerThanInstant(last.Add(time.Second)))
	require.False(t, Series{}.NewerThanInstant(day))
}

func TestDurationUntilNextActiveChange(t *testing.T) {
	day := time.Date(2026, 1, 15, 0, 0, 0, 0, cet)
	s := NewSeries(hourly(day, 0.1, 0.2, 0.3))

	// Waits always land just past the change, never before it.
	d, ok := s.DurationUntilNextActiveChange(day.Add(30 * time.Minute))
	require.True(t, ok)
	require.Equal(t, 30*time.Minute+time.Millisecond, d)

	d, ok = s.DurationUntilNextActiveChange(day.Add(30*time.Minute + 400*time.Microsecond))
	require.True(t, ok)
	require.Equal(t, 30*time.Minute, d)

	// After the last point there is no upcoming change.
	_, ok = s.DurationUntilNextActiveChange(day.Add(3 * time.Hour))
	require.False(t, ok)

	_, ok = Series{}.DurationUntilNextActiveChange(day)
	require.False(t, ok)
}
