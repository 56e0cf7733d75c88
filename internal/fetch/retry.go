package fetch

import (
	"context"
	"fmt"
	"time"

	"tibprice/internal/logging"
	"tibprice/internal/price"
)

// Fetcher fetches one day-ahead price series.
type Fetcher interface {
	Fetch(ctx context.Context) (price.Series, error)
}

// ExhaustedError reports that every fetch attempt failed. Attempts counts
// the calls actually made, one more than the retry budget, and Err is the
// error from the last attempt.
type ExhaustedError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d fetch attempts failed: %v", e.Attempts, e.Err)
}

// Unwrap exposes the last attempt's error to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Retryer wraps a Fetcher with exponential backoff. It is itself a Fetcher,
// so callers see one fetch that happens to try hard.
type Retryer struct {
	Fetcher      Fetcher
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// NewRetryer wraps f with the given retry budget and backoff bounds.
func NewRetryer(f Fetcher, maxRetries int, initialDelay, maxDelay time.Duration) *Retryer {
	return &Retryer{
		Fetcher:      f,
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		MaxDelay:     maxDelay,
	}
}

// Fetch calls the wrapped fetcher until one attempt succeeds or the budget
// of MaxRetries+1 attempts is spent, then returns an ExhaustedError. The
// delay between attempts doubles from InitialDelay up to MaxDelay. There is
// no sleep after the final attempt, and cancelling ctx aborts any wait.
func (r *Retryer) Fetch(ctx context.Context) (price.Series, error) {
	var lastErr error
	delay := r.InitialDelay
	attempts := r.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		series, err := r.Fetcher.Fetch(ctx)
		if err == nil {
			return series, nil
		}
		lastErr = err
		logging.Ctx(ctx).Warn("price fetch failed",
			"attempt", attempt, "max_attempts", attempts, "error", err)

		if attempt == attempts {
			break
		}
		logging.Ctx(ctx).Warn("waiting before next fetch attempt",
			"delay", logging.DurationString(delay))
		select {
		case <-ctx.Done():
			return price.Series{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > r.MaxDelay {
			delay = r.MaxDelay
		}
	}
	return price.Series{}, &ExhaustedError{Attempts: attempts, Err: lastErr}
}
