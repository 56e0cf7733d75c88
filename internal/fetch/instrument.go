package fetch

import (
	"context"
	"time"

	"tibprice/internal/metrics"
	"tibprice/internal/price"
)

// Instrument wraps f so every call is reported to m. Placed inside a
// Retryer it counts and times individual attempts rather than whole cycles.
func Instrument(f Fetcher, m metrics.Recorder) Fetcher {
	return &instrumentedFetcher{f: f, m: m}
}

type instrumentedFetcher struct {
	f Fetcher
	m metrics.Recorder
}

func (i *instrumentedFetcher) Fetch(ctx context.Context) (price.Series, error) {
	start := time.Now()
	s, err := i.f.Fetch(ctx)
	i.m.ObserveFetchDuration(time.Since(start), err == nil)
	i.m.IncFetchAttempt(err == nil)
	return s, err
}
