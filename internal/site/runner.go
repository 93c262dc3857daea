package site

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/metrics"
)

// runStages executes stages in order, recording timing per stage and
// stopping on the first fatal error. After discovery an unchanged
// content signature short-circuits the remaining stages, provided the
// existing output still looks like a rendered site.
func (b *Builder) runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			bs.Report.AddError(se)
			b.recordStageResult(st.Name, StageResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)

		bs.Report.StageDurations[string(st.Name)] = dur
		b.rec.ObserveStageDuration(string(st.Name), dur)

		result, abort := b.classifyStageResult(bs, st.Name, err)
		b.recordStageResult(st.Name, result)

		slog.Debug("Stage completed",
			logfields.Stage(string(st.Name)),
			logfields.DurationMS(float64(dur)/float64(time.Millisecond)),
			slog.String("result", string(result)))

		if abort {
			return err
		}

		if st.Name == StageDiscover && bs.Unchanged {
			if existingSiteValid(bs.OutputDir) {
				slog.Info("Content signature unchanged and output present; skipping remaining stages",
					logfields.BuildID(bs.Report.BuildID))
				bs.Report.SkipReason = "no_changes"
				return nil
			}
			slog.Info("Content signature unchanged but output invalid or missing; proceeding with full build")
		}
	}
	return nil
}

// classifyStageResult maps a stage error to its result and whether the
// build must abort. Non-StageError errors are treated as fatal.
func (b *Builder) classifyStageResult(bs *BuildState, stage StageName, err error) (StageResult, bool) {
	if err == nil {
		return StageResultSuccess, false
	}

	var se *StageError
	if !errors.As(err, &se) {
		bs.Report.AddError(err)
		return StageResultFatal, true
	}

	switch se.Kind {
	case StageErrorWarning:
		bs.Report.AddWarning(se)
		slog.Warn("Stage reported a warning", logfields.Stage(string(stage)), logfields.Error(se.Err))
		return StageResultWarning, false
	case StageErrorCanceled:
		bs.Report.AddError(se)
		return StageResultCanceled, true
	case StageErrorFatal:
		bs.Report.AddError(se)
		return StageResultFatal, true
	}
	bs.Report.AddError(se)
	return StageResultFatal, true
}

func (b *Builder) recordStageResult(stage StageName, result StageResult) {
	switch result {
	case StageResultSuccess:
		b.rec.IncStageResult(string(stage), metrics.ResultSuccess)
	case StageResultWarning:
		b.rec.IncStageResult(string(stage), metrics.ResultWarning)
	case StageResultFatal:
		b.rec.IncStageResult(string(stage), metrics.ResultFatal)
	case StageResultCanceled:
		b.rec.IncStageResult(string(stage), metrics.ResultCanceled)
	}
}
