package daemon

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/linkcheck"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
)

// linkCheckTimeout bounds one scheduled run end to end.
const linkCheckTimeout = 10 * time.Minute

// runScheduledLinkCheck verifies the rendered site's links and records
// the result. Scheduled runs skip quietly while no output exists yet.
func (d *Daemon) runScheduledLinkCheck() {
	if d.currentStatus() != StatusRunning {
		return
	}
	if _, _, hasGoodBuild := d.buildStatus.GetStatus(); !hasGoodBuild {
		slog.Debug("Skipping scheduled link check; no successful build yet")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), linkCheckTimeout)
	defer cancel()

	checker := linkcheck.New(d.cfg,
		linkcheck.WithCache(d.linkCache),
		linkcheck.WithRecorder(d.rec))

	result, err := checker.Run(ctx, d.cfg.Output.Directory)
	if err != nil {
		slog.Error("Scheduled link check failed", logfields.Error(err))
		return
	}

	d.emitLinkCheckCompleted(ctx, result)
}
