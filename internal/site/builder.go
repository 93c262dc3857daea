package site

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/metrics"
	"git.home.luguber.info/inful/mdpage/internal/render"
)

// Builder runs site builds. It is safe to reuse across builds; each
// Build call carries its own BuildState.
type Builder struct {
	cfg      *config.Config
	renderer *render.Renderer
	rec      metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder wires a metrics recorder into the build.
func WithRecorder(rec metrics.Recorder) Option {
	return func(b *Builder) {
		if rec != nil {
			b.rec = rec
		}
	}
}

// NewBuilder creates a Builder for the given configuration.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		renderer: render.New(),
		rec:      metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildState carries everything the stages produce and consume.
type BuildState struct {
	SourceDir string
	OutputDir string

	Files  []SourceFile
	Assets []SourceFile

	Articles  []Article
	IndexHTML string

	// Signature is the content signature of the discovered set.
	Signature string
	// Unchanged is true when Signature matches the stored one.
	Unchanged bool

	Report *Report
}

// Build renders the article tree under sourceDir into the configured
// output directory. The returned Report is non-nil even on error.
func (b *Builder) Build(ctx context.Context, sourceDir string) (*Report, error) {
	return b.BuildWithID(ctx, sourceDir, uuid.NewString())
}

// BuildWithID runs a build under a caller-assigned build id. The
// daemon uses this to record the start event before the build runs.
func (b *Builder) BuildWithID(ctx context.Context, sourceDir, buildID string) (*Report, error) {
	bs := &BuildState{
		SourceDir: sourceDir,
		OutputDir: b.cfg.Output.Directory,
		Report:    NewReport(buildID),
	}

	slog.Info("Site build started",
		logfields.BuildID(buildID),
		logfields.Path(sourceDir),
		slog.String("output", bs.OutputDir))

	stages := NewPipeline().
		Add(StageDiscover, b.stageDiscover).
		Add(StageParse, b.stageParse).
		Add(StageRender, b.stageRender).
		Add(StageIndex, b.stageIndex).
		Add(StageWrite, b.stageWrite).
		Build()

	err := b.runStages(ctx, bs, stages)

	bs.Report.Finish()
	bs.Report.DeriveOutcome(err)
	b.rec.ObserveBuildDuration(bs.Report.Duration())
	b.rec.IncBuildOutcome(string(bs.Report.Outcome))
	if err == nil && bs.Report.SkipReason == "" {
		b.rec.SetArticlesRendered(bs.Report.Articles)
	}

	if err != nil {
		slog.Error("Site build failed",
			logfields.BuildID(buildID),
			slog.String("outcome", string(bs.Report.Outcome)),
			logfields.Error(err))
		return bs.Report, err
	}

	slog.Info("Site build finished",
		logfields.BuildID(buildID),
		slog.String("outcome", string(bs.Report.Outcome)),
		logfields.Count(bs.Report.Articles),
		logfields.DurationMS(float64(bs.Report.Duration())/float64(time.Millisecond)))
	return bs.Report, nil
}

// Load discovers and parses the article tree without rendering or
// writing anything. Drafts are dropped the same way a build drops
// them. Search and inspection commands use this to read the tree a
// build would see.
func (b *Builder) Load(ctx context.Context, sourceDir string) ([]Article, error) {
	bs := &BuildState{
		SourceDir: sourceDir,
		OutputDir: b.cfg.Output.Directory,
		Report:    NewReport(uuid.NewString()),
	}
	if err := b.stageDiscover(ctx, bs); err != nil {
		return nil, err
	}
	if err := b.stageParse(ctx, bs); err != nil {
		return nil, err
	}
	return bs.Articles, nil
}
