package recorder

import "tibprice/internal/price"

// Outcome labels stored with each recorded refresh cycle. Exhausted covers
// any cycle that ended in an error, spent retries as well as a failed save.
const (
	OutcomeSuccess   = "success"
	OutcomeExhausted = "exhausted"
)

// FetchEvent describes the outcome of one refresh cycle.
type FetchEvent struct {
	Outcome    string // OutcomeSuccess or OutcomeExhausted
	PointCount int
	Installed  bool
	Error      string
}

// Recorder persists price history for analysis.
type Recorder interface {
	RecordSeries(s price.Series) error
	RecordFetch(evt *FetchEvent) error
	Close() error
}
