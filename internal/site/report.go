package site

import (
	"errors"
	"fmt"
	"time"
)

// Outcome is the typed enumeration of final build result states.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what one build run did. It doubles as the payload
// persisted with build events, so fields carry JSON tags.
type Report struct {
	BuildID        string                   `json:"build_id"`
	Start          time.Time                `json:"start"`
	End            time.Time                `json:"end"`
	Articles       int                      `json:"articles"`
	Assets         int                      `json:"assets"`
	SkippedDrafts  int                      `json:"skipped_drafts,omitempty"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	Outcome        Outcome                  `json:"outcome"`
	// SkipReason explains a short-circuited run ("no_changes"). Empty
	// when the full pipeline ran.
	SkipReason string `json:"skip_reason,omitempty"`
	// Signature is the content signature the build produced.
	Signature string   `json:"signature,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// NewReport constructs an empty report stamped with the build id.
func NewReport(buildID string) *Report {
	return &Report{
		BuildID:        buildID,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

// Finish sets the end time.
func (r *Report) Finish() {
	if r.End.IsZero() {
		r.End = time.Now()
	}
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// AddError records a fatal problem on the report.
func (r *Report) AddError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

// AddWarning records a non-fatal problem on the report.
func (r *Report) AddWarning(err error) {
	if err != nil {
		r.Warnings = append(r.Warnings, err.Error())
	}
}

// DeriveOutcome sets Outcome from the recorded errors and warnings.
// A canceled stage error wins over plain failure.
func (r *Report) DeriveOutcome(err error) {
	var se *StageError
	if errors.As(err, &se) && se.Kind == StageErrorCanceled {
		r.Outcome = OutcomeCanceled
		return
	}
	if err != nil || len(r.Errors) > 0 {
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("articles=%d assets=%d duration=%s outcome=%s",
		r.Articles, r.Assets, r.Duration().Truncate(time.Millisecond), string(r.Outcome))
}
