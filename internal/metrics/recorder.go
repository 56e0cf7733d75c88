package metrics

import "time"

// Outcome labels for completed refresh cycles.
const (
	OutcomeSuccess   = "success"
	OutcomeExhausted = "exhausted"
)

// Recorder defines observability hooks for fetch and cache activity.
// Implementations must tolerate being called from multiple goroutines.
type Recorder interface {
	IncFetchAttempt(success bool)
	ObserveFetchDuration(d time.Duration, success bool)
	IncCycleOutcome(outcome string) // OutcomeSuccess or OutcomeExhausted
	IncInstall()
	SetLastSuccess(t time.Time)
}

// NoopRecorder is a Recorder that does nothing, the default when no metrics
// endpoint is configured.
type NoopRecorder struct{}

func (NoopRecorder) IncFetchAttempt(bool)                     {}
func (NoopRecorder) ObserveFetchDuration(time.Duration, bool) {}
func (NoopRecorder) IncCycleOutcome(string)                   {}
func (NoopRecorder) IncInstall()                              {}
func (NoopRecorder) SetLastSuccess(time.Time)                 {}
