package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// Build trigger names, recorded on events and metrics.
const (
	TriggerInitial  = "initial"
	TriggerWatch    = "watch"
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

// rebuildRequest asks the worker for one build. A pre-assigned BuildID
// lets manual triggers hand the id back to the caller before the build
// runs.
type rebuildRequest struct {
	Trigger string
	BuildID string
}

// rebuildQueue coalesces rebuild requests into at most one queued
// build. While a build runs, further requests collapse into the single
// queued slot, so bursts of file events cost one follow-up build.
type rebuildQueue struct {
	mu     sync.Mutex
	queued *rebuildRequest
	wake   chan struct{}
}

func newRebuildQueue() *rebuildQueue {
	return &rebuildQueue{wake: make(chan struct{}, 1)}
}

// offer enqueues a request, coalescing with any queued one, and
// returns the request that will actually run. A request carrying a
// build id wins over an anonymous watch request so the id stays
// answerable.
func (q *rebuildQueue) offer(req rebuildRequest) rebuildRequest {
	q.mu.Lock()
	switch {
	case q.queued == nil:
		r := req
		q.queued = &r
	case q.queued.BuildID == "" && req.BuildID != "":
		r := req
		q.queued = &r
	}
	granted := *q.queued
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return granted
}

// take removes and returns the queued request, if any.
func (q *rebuildQueue) take() (rebuildRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queued == nil {
		return rebuildRequest{}, false
	}
	req := *q.queued
	q.queued = nil
	return req, true
}

// debounced returns a trigger that fires fn once per quiet interval.
// Every call restarts the timer, so a burst of calls costs one fire.
func debounced(interval time.Duration, fn func()) func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(interval, fn)
	}
}

// runWorker serves the rebuild queue one build at a time until the
// context ends. Requests arriving mid-build wait in the queue's single
// slot and run right after.
func (d *Daemon) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.queue.wake:
			for {
				if ctx.Err() != nil {
					return
				}
				req, ok := d.queue.take()
				if !ok {
					break
				}
				d.runBuild(ctx, req)
			}
		}
	}
}

// runBuild executes one site build and fans out the result: event
// store, history projection, admin event stream, live reload, metrics.
func (d *Daemon) runBuild(ctx context.Context, req rebuildRequest) {
	buildID := req.BuildID
	if buildID == "" {
		buildID = uuid.NewString()
	}

	d.building.Store(true)
	defer d.building.Store(false)

	d.rec.IncRebuild(req.Trigger)
	d.emitBuildStarted(ctx, buildID, req.Trigger)

	report, err := d.builder.BuildWithID(ctx, d.sourceDir, buildID)
	if err != nil {
		d.buildStatus.setError(err)
		d.emitBuildFailed(ctx, buildID, report, err)
		if report.Outcome != site.OutcomeCanceled {
			// Reload open pages so the build error page shows.
			d.liveReload.Broadcast(fmt.Sprintf("error:%d", time.Now().UnixNano()))
		}
		return
	}

	d.buildStatus.setSuccess()
	d.emitBuildCompleted(ctx, buildID, report)
	if report.Signature != "" {
		// The hub deduplicates, so an unchanged skip reloads nothing.
		d.liveReload.Broadcast(report.Signature)
	}

	if report.SkipReason != "" {
		slog.Debug("Rebuild skipped",
			logfields.BuildID(buildID),
			slog.String("reason", report.SkipReason))
	}
}
