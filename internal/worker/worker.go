package worker

import (
	"context"
	"math/rand"
	"time"

	"tibprice/internal/cache"
	"tibprice/internal/fetch"
	"tibprice/internal/logging"
	"tibprice/internal/metrics"
	"tibprice/internal/price"
	"tibprice/internal/recorder"
)

// DefaultRecoveryDelay is the pause after a failed cycle before the next
// scheduling decision, long enough to avoid hammering the API.
const DefaultRecoveryDelay = 60 * time.Second

// Worker keeps the shared cache supplied with fresh prices. Each cycle it
// decides whether a fetch is due, fetches with retries, publishes anything
// newer to the cache, persists it, and sleeps until the next price list is
// expected.
type Worker struct {
	Cache      *cache.Cache
	Fetcher    fetch.Fetcher
	UpdateTime price.UpdateTime
	PricesFile string
	Recorder   recorder.Recorder
	Metrics    metrics.Recorder

	// RecoveryDelay and Jitter have working defaults from NewWorker and are
	// fields so tests can shrink them.
	RecoveryDelay time.Duration
	Jitter        func() time.Duration
}

// NewWorker creates a Worker with a no-op recorder and metrics, the default
// recovery delay, and uniform jitter of up to one minute per cycle.
func NewWorker(c *cache.Cache, f fetch.Fetcher, updateTime price.UpdateTime, pricesFile string) *Worker {
	return &Worker{
		Cache:         c,
		Fetcher:       f,
		UpdateTime:    updateTime,
		PricesFile:    pricesFile,
		Recorder:      recorder.NewNoopRecorder(),
		Metrics:       metrics.NoopRecorder{},
		RecoveryDelay: DefaultRecoveryDelay,
		Jitter:        defaultJitter,
	}
}

// defaultJitter spreads fetches of independent instances over a minute so
// they do not hit the API at the same instant after a day change.
func defaultJitter() time.Duration {
	return time.Duration(rand.Int63n(60001)) * time.Millisecond
}

// Run loops until ctx is cancelled. Cancellation is honored at the top of
// every cycle and inside every sleep.
func (w *Worker) Run(ctx context.Context) {
	logger := logging.Ctx(ctx)
	logger.Info("background worker started")

	local := w.Cache.Snapshot()
	for {
		if ctx.Err() != nil {
			logger.Info("background worker stopping")
			return
		}

		w.cycle(ctx, &local)

		wait := local.DurationUntilNextFetch(w.UpdateTime, time.Now())
		jitter := w.Jitter()
		logger.Info("background worker sleeping until next price list",
			"wait", logging.DurationString(wait+jitter),
			"jitter", logging.DurationString(jitter))
		if !w.sleep(ctx, wait+jitter) {
			logger.Info("background worker stopping")
			return
		}
	}
}

// cycle runs one refresh against the local series and publishes the result.
// On error the local series is published anyway: a failed save happens after
// the local replacement, so it can still hold newer data.
func (w *Worker) cycle(ctx context.Context, local *price.Series) {
	logger := logging.Ctx(ctx)

	updated, err := Refresh(ctx, local, w.Fetcher, w.UpdateTime, w.PricesFile, false)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Error("updating price cache failed", "error", err)
		installed := w.install(*local)
		w.Metrics.IncCycleOutcome(metrics.OutcomeExhausted)
		w.recordFetch(ctx, &recorder.FetchEvent{
			Outcome:    recorder.OutcomeExhausted,
			PointCount: local.Len(),
			Installed:  installed,
			Error:      err.Error(),
		})
		logger.Debug("sleeping before next cycle to avoid hammering the API",
			"delay", logging.DurationString(w.RecoveryDelay))
		w.sleep(ctx, w.RecoveryDelay)
		return
	}
	if !updated {
		return
	}

	logger.Info("new prices received", "points", local.Len())
	installed := w.install(*local)
	w.Metrics.IncCycleOutcome(metrics.OutcomeSuccess)
	w.Metrics.SetLastSuccess(time.Now())
	w.recordFetch(ctx, &recorder.FetchEvent{
		Outcome:    recorder.OutcomeSuccess,
		PointCount: local.Len(),
		Installed:  installed,
	})
	if err := w.Recorder.RecordSeries(*local); err != nil {
		logger.Error("record price series", "error", err)
	}
}

// Refresh fetches new prices into local when due, or unconditionally when
// force is set, and saves the result. It reports whether local was replaced;
// a true result with a non-nil error means the fetch succeeded but saving
// the file did not. The one-shot command path shares this with the worker.
func Refresh(ctx context.Context, local *price.Series, fetcher fetch.Fetcher, updateTime price.UpdateTime, pricesFile string, force bool) (bool, error) {
	logger := logging.Ctx(ctx)

	if !force && !local.ShouldFetch(updateTime, time.Now()) {
		logger.Debug("not contacting the API at this moment, using existing prices")
		return false, nil
	}

	fetched, err := fetcher.Fetch(ctx)
	if err != nil {
		return false, err
	}
	if fetched.IsEmpty() {
		logger.Debug("no price points received")
		return false, nil
	}
	if !fetched.IsNewerThan(*local) {
		logger.Debug("fetched prices are not newer than current ones")
		return false, nil
	}

	*local = fetched
	if err := price.Save(fetched, pricesFile); err != nil {
		return true, err
	}
	logger.Info("prices updated and saved", "path", pricesFile)
	return true, nil
}

func (w *Worker) install(s price.Series) bool {
	if !w.Cache.TryInstall(s) {
		return false
	}
	w.Metrics.IncInstall()
	return true
}

func (w *Worker) recordFetch(ctx context.Context, evt *recorder.FetchEvent) {
	if err := w.Recorder.RecordFetch(evt); err != nil {
		logging.Ctx(ctx).Error("record fetch event", "error", err)
	}
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// duration elapsed.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
