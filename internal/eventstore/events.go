package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/foundation/errors"
)

// Event types recorded by the builder and daemon.
const (
	TypeBuildStarted       = "BuildStarted"
	TypeBuildCompleted     = "BuildCompleted"
	TypeBuildFailed        = "BuildFailed"
	TypeLinkCheckCompleted = "LinkCheckCompleted"
)

// BuildStarted is emitted when a site build begins.
type BuildStarted struct {
	BaseEvent
	Trigger string `json:"trigger"`
	Source  string `json:"source"`
}

// NewBuildStarted creates a BuildStarted event. Trigger names what
// kicked the build off: "initial", "watch", "manual" or "schedule".
func NewBuildStarted(buildID, trigger, source string) (*BuildStarted, error) {
	payload, err := json.Marshal(map[string]any{
		"trigger": trigger,
		"source":  source,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal BuildStarted payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}

	return &BuildStarted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      TypeBuildStarted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Trigger: trigger,
		Source:  source,
	}, nil
}

// BuildRecord carries the key numbers from a finished build.
// This is a subset of site.Report sized for event storage.
type BuildRecord struct {
	Outcome        string           `json:"outcome"`
	Articles       int              `json:"articles"`
	Assets         int              `json:"assets"`
	DurationMS     int64            `json:"duration_ms"`
	SkipReason     string           `json:"skip_reason,omitempty"`
	StageDurations map[string]int64 `json:"stage_durations_ms,omitempty"` // stage -> milliseconds
	Errors         []string         `json:"errors,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// BuildCompleted is emitted when a build finishes, whatever the outcome.
type BuildCompleted struct {
	BaseEvent
	Record BuildRecord `json:"record"`
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, record BuildRecord) (*BuildCompleted, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal BuildCompleted payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}

	return &BuildCompleted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      TypeBuildCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Record: record,
	}, nil
}

// BuildFailed is emitted when a build aborts with a fatal error.
type BuildFailed struct {
	BaseEvent
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID, stage, errorMsg string) (*BuildFailed, error) {
	payload, err := json.Marshal(map[string]any{
		"stage": stage,
		"error": errorMsg,
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal BuildFailed payload").
			WithCause(err).
			WithContext("build_id", buildID).
			WithContext("stage", stage).
			Build()
	}

	return &BuildFailed{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      TypeBuildFailed,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Stage: stage,
		Error: errorMsg,
	}, nil
}

// LinkCheckCompleted is emitted when a link check run finishes.
type LinkCheckCompleted struct {
	BaseEvent
	Checked    int   `json:"checked"`
	Broken     int   `json:"broken"`
	DurationMS int64 `json:"duration_ms"`
}

// NewLinkCheckCompleted creates a LinkCheckCompleted event.
func NewLinkCheckCompleted(buildID string, checked, broken int, duration time.Duration) (*LinkCheckCompleted, error) {
	payload, err := json.Marshal(map[string]any{
		"checked":     checked,
		"broken":      broken,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal LinkCheckCompleted payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}

	return &LinkCheckCompleted{
		BaseEvent: BaseEvent{
			EventBuildID:   buildID,
			EventType:      TypeLinkCheckCompleted,
			EventTimestamp: time.Now(),
			EventPayload:   payload,
		},
		Checked:    checked,
		Broken:     broken,
		DurationMS: duration.Milliseconds(),
	}, nil
}
