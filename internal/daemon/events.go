package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/eventstore"
	"git.home.luguber.info/inful/mdpage/internal/linkcheck"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/server/httpserver"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// persistTimeout bounds event writes issued after the run context has
// already been canceled at shutdown.
const persistTimeout = 5 * time.Second

// persist appends an event to the store and applies it to the history
// projection. Failures only log; a dead event store must not take the
// serve loop down. The write is detached from the caller's context so
// terminal events still land when a build was canceled by shutdown,
// which is what keeps restarts from replaying a forever-running build.
func (d *Daemon) persist(ctx context.Context, ev eventstore.Event) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := eventstore.Record(pctx, d.store, ev); err != nil {
		slog.Warn("Failed to persist build event",
			logfields.BuildID(ev.BuildID()),
			slog.String("event_type", ev.Type()),
			logfields.Error(err))
	}
	d.projection.Apply(ev)
}

// mirror forwards a websocket event onto the NATS subject when one is
// configured; failures only log. Detached from the run context so the
// terminal event of a shutdown-canceled build still goes out.
func (d *Daemon) mirror(ctx context.Context, ev httpserver.BuildEvent) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := d.linkCache.PublishEvent(pctx, ev); err != nil {
		slog.Warn("Failed to publish build event to NATS",
			logfields.BuildID(ev.BuildID),
			slog.String("event_type", ev.Type),
			logfields.Error(err))
	}
}

func (d *Daemon) emitBuildStarted(ctx context.Context, buildID, trigger string) {
	ev, err := eventstore.NewBuildStarted(buildID, trigger, d.sourceDir)
	if err != nil {
		slog.Warn("Failed to construct build event", logfields.Error(err))
		return
	}
	d.persist(ctx, ev)

	out := httpserver.BuildEvent{
		Type:    "build_started",
		BuildID: buildID,
		Trigger: trigger,
	}
	d.events.Broadcast(out)
	d.mirror(ctx, out)
}

func (d *Daemon) emitBuildCompleted(ctx context.Context, buildID string, report *site.Report) {
	ev, err := eventstore.NewBuildCompleted(buildID, buildRecord(report))
	if err != nil {
		slog.Warn("Failed to construct build event", logfields.Error(err))
		return
	}
	d.persist(ctx, ev)

	out := httpserver.BuildEvent{
		Type:    "build_completed",
		BuildID: buildID,
		Outcome: string(report.Outcome),
		Data: map[string]any{
			"articles":    report.Articles,
			"assets":      report.Assets,
			"duration_ms": report.Duration().Milliseconds(),
			"skip_reason": report.SkipReason,
		},
	}
	d.events.Broadcast(out)
	d.mirror(ctx, out)
}

func (d *Daemon) emitBuildFailed(ctx context.Context, buildID string, report *site.Report, buildErr error) {
	ev, err := eventstore.NewBuildFailed(buildID, failedStage(buildErr), buildErr.Error())
	if err != nil {
		slog.Warn("Failed to construct build event", logfields.Error(err))
		return
	}
	d.persist(ctx, ev)

	out := httpserver.BuildEvent{
		Type:    "build_failed",
		BuildID: buildID,
		Outcome: string(report.Outcome),
		Message: buildErr.Error(),
	}
	d.events.Broadcast(out)
	d.mirror(ctx, out)
}

func (d *Daemon) emitLinkCheckCompleted(ctx context.Context, result *linkcheck.Result) {
	ev, err := eventstore.NewLinkCheckCompleted(result.RunID, result.Checked, len(result.Broken), result.Duration)
	if err != nil {
		slog.Warn("Failed to construct link check event", logfields.Error(err))
		return
	}
	d.persist(ctx, ev)

	out := httpserver.BuildEvent{
		Type:    "linkcheck_completed",
		BuildID: result.RunID,
		Data: map[string]any{
			"checked":     result.Checked,
			"broken":      len(result.Broken),
			"duration_ms": result.Duration.Milliseconds(),
		},
	}
	d.events.Broadcast(out)
	d.mirror(ctx, out)
}

// buildRecord trims a site report down to the event payload shape.
func buildRecord(report *site.Report) eventstore.BuildRecord {
	record := eventstore.BuildRecord{
		Outcome:    string(report.Outcome),
		Articles:   report.Articles,
		Assets:     report.Assets,
		DurationMS: report.Duration().Milliseconds(),
		SkipReason: report.SkipReason,
		Errors:     report.Errors,
		Warnings:   report.Warnings,
	}
	if len(report.StageDurations) > 0 {
		record.StageDurations = make(map[string]int64, len(report.StageDurations))
		for stage, dur := range report.StageDurations {
			record.StageDurations[stage] = dur.Milliseconds()
		}
	}
	return record
}

// failedStage names the pipeline stage a build error came from, empty
// when the error carries no stage.
func failedStage(err error) string {
	var se *site.StageError
	if errors.As(err, &se) {
		return string(se.Stage)
	}
	return ""
}
