package price

import (
	"sort"
	"time"
)

// PricePoint is a single tariff record. It is valid from StartsAt until the
// start of the next point in the series.
type PricePoint struct {
	Total    float64   `json:"total"`
	StartsAt time.Time `json:"startsAt"`
}

// Series is a chronologically sorted sequence of price points, typically
// covering today and tomorrow. A Series is read-only once constructed;
// updates replace the whole value rather than mutating points.
type Series struct {
	points []PricePoint
}

// NewSeries builds a Series from points, copying and stable-sorting them by
// StartsAt. Duplicate timestamps are kept in their original relative order.
func NewSeries(points []PricePoint) Series {
	pts := make([]PricePoint, len(points))
	copy(pts, points)
	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].StartsAt.Before(pts[j].StartsAt)
	})
	return Series{points: pts}
}

// Merge combines today's and tomorrow's point sets into one sorted Series.
func Merge(today, tomorrow []PricePoint) Series {
	pts := make([]PricePoint, 0, len(today)+len(tomorrow))
	pts = append(pts, today...)
	pts = append(pts, tomorrow...)
	return NewSeries(pts)
}

func (s Series) Len() int { return len(s.points) }

func (s Series) IsEmpty() bool { return len(s.points) == 0 }

// Points returns a copy of the underlying points in chronological order.
func (s Series) Points() []PricePoint {
	pts := make([]PricePoint, len(s.points))
	copy(pts, s.points)
	return pts
}

// Recency returns the start time of the chronologically last point. The
// second return value is false for an empty series, which compares older
// than anything.
func (s Series) Recency() (time.Time, bool) {
	if len(s.points) == 0 {
		return time.Time{}, false
	}
	return s.points[len(s.points)-1].StartsAt, true
}

// ActivePrice returns the point in effect at now: the point p with
// p.StartsAt <= now < next(p).StartsAt. The last point never qualifies
// because its end is unbounded.
func (s Series) ActivePrice(now time.Time) (PricePoint, bool) {
	for i := 0; i+1 < len(s.points); i++ {
		startsAt := s.points[i].StartsAt
		endsAt := s.points[i+1].StartsAt
		if !now.Before(startsAt) && now.Before(endsAt) {
			return s.points[i], true
		}
	}
	return PricePoint{}, false
}

// HasCoverageFor reports whether d lies strictly inside the covered span:
// at least one point starts strictly before d and at least one strictly
// after. Touching an endpoint does not count as coverage.
func (s Series) HasCoverageFor(d time.Time) bool {
	var before, after bool
	for _, p := range s.points {
		if p.StartsAt.Before(d) {
			before = true
		}
		if p.StartsAt.After(d) {
			after = true
		}
	}
	return before && after
}

// IsNewerThan reports whether s is strictly more recent than other. Equal
// recency is not newer, so refetching identical data never looks like an
// update. An empty series is never newer; any non-empty series is newer
// than an empty one.
func (s Series) IsNewerThan(other Series) bool {
	last, ok := s.Recency()
	if !ok {
		return false
	}
	otherLast, ok := other.Recency()
	if !ok {
		return true
	}
	return last.After(otherLast)
}

// NewerThanInstant reports whether the series' recency is strictly after t.
func (s Series) NewerThanInstant(t time.Time) bool {
	last, ok := s.Recency()
	return ok && last.After(t)
}

// DurationUntilNextActiveChange returns how long until the first point that
// starts strictly after now, rounded up to the next whole millisecond so a
// sleeper never wakes before the change. The second return value is false
// when no future point exists.
func (s Series) DurationUntilNextActiveChange(now time.Time) (time.Duration, bool) {
	for _, p := range s.points {
		if p.StartsAt.After(now) {
			d := p.StartsAt.Sub(now)
			return d.Truncate(time.Millisecond) + time.Millisecond, true
		}
	}
	return 0, false
}
