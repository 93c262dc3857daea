package daemon

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdpage/internal/eventstore"
	"git.home.luguber.info/inful/mdpage/internal/server/httpserver"
)

// The daemon is the runtime behind the HTTP handlers.
var _ httpserver.Runtime = (*Daemon)(nil)

// Status returns the daemon lifecycle state as a string.
func (d *Daemon) Status() string { return string(d.currentStatus()) }

// StartTime returns when the daemon started.
func (d *Daemon) StartTime() time.Time { return d.startTime }

// Building reports whether a build is running right now.
func (d *Daemon) Building() bool { return d.building.Load() }

// ActiveBuild returns the currently running build, if any.
func (d *Daemon) ActiveBuild() *eventstore.BuildSummary {
	return d.projection.GetActiveBuild()
}

// LastBuild returns the most recently finished build.
func (d *Daemon) LastBuild() *eventstore.BuildSummary {
	return d.projection.GetLastCompletedBuild()
}

// History returns finished builds, newest first, capped at limit when
// limit is positive.
func (d *Daemon) History(limit int) []*eventstore.BuildSummary {
	history := d.projection.GetHistory()
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history
}

// BuildCounts tallies the bounded history. Builds that produced output
// count as succeeded, including those with warnings.
func (d *Daemon) BuildCounts() (total, succeeded, failed int) {
	for _, b := range d.projection.GetHistory() {
		total++
		if b.Status == "completed" {
			succeeded++
		} else {
			failed++
		}
	}
	return total, succeeded, failed
}

// LastSyncTime returns when the history projection last synchronized
// with the event store.
func (d *Daemon) LastSyncTime() time.Time {
	return d.projection.LastSyncTime()
}

// TriggerBuild enqueues a manual build and returns the id it will run
// under. When a build is already queued the caller gets that build's
// id instead; an empty id means the daemon is not accepting builds.
func (d *Daemon) TriggerBuild() string {
	if d.currentStatus() != StatusRunning {
		return ""
	}
	granted := d.queue.offer(rebuildRequest{
		Trigger: TriggerManual,
		BuildID: uuid.NewString(),
	})
	return granted.BuildID
}

// buildStatus tracks the outcome of the most recent build so the site
// server can decide between the error page and the pending page while
// no good output exists.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

var _ httpserver.BuildStatus = (*buildStatus)(nil)

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

// GetStatus reports the last error and whether any successful build
// has completed since startup.
func (bs *buildStatus) GetStatus() (hasError bool, err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError != nil, bs.lastError, bs.hasGoodBuild
}
