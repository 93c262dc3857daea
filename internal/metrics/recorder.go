package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines the observability hooks mdpage components report
// through. Components receive a Recorder by injection and default to
// NoopRecorder, so metrics stay optional per call site.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|failed|canceled
	SetArticlesRendered(n int)
	IncRetry(op string)
	IncRetryExhausted(op string)
	ObserveLinkCheckDuration(d time.Duration)
	SetBrokenLinks(n int)
	IncWatcherEvent(kind string)
	IncRebuild(trigger string) // trigger: initial|watch|schedule|manual
	SetLiveReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics
// are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) SetArticlesRendered(int)                    {}
func (NoopRecorder) IncRetry(string)                            {}
func (NoopRecorder) IncRetryExhausted(string)                   {}
func (NoopRecorder) ObserveLinkCheckDuration(time.Duration)     {}
func (NoopRecorder) SetBrokenLinks(int)                         {}
func (NoopRecorder) IncWatcherEvent(string)                     {}
func (NoopRecorder) IncRebuild(string)                          {}
func (NoopRecorder) SetLiveReloadClients(int)                   {}
