package site

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/mdpage/internal/fence"
	"git.home.luguber.info/inful/mdpage/internal/frontmatterops"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/render"
)

// stageParse turns discovered files into articles: frontmatter is
// split off, the body is parsed into blocks, drafts are dropped. A
// malformed fence fails the build; there is no partial output.
func (b *Builder) stageParse(ctx context.Context, bs *BuildState) error {
	articles := make([]Article, 0, len(bs.Files))
	for _, f := range bs.Files {
		select {
		case <-ctx.Done():
			return NewCanceledStageError(StageParse, ctx.Err())
		default:
		}

		meta, body, err := frontmatterops.ReadMeta(f.Content)
		if err != nil {
			return NewFatalStageError(StageParse, fmt.Errorf("frontmatter %s: %w", f.RelPath, err))
		}
		if meta.Draft {
			bs.Report.SkippedDrafts++
			slog.Debug("Skipping draft article", logfields.Document(f.RelPath))
			continue
		}

		doc, err := fence.Parse(body)
		if err != nil {
			return NewFatalStageError(StageParse, fmt.Errorf("parse %s: %w", f.RelPath, err))
		}

		articles = append(articles, Article{
			SourcePath: f.Path,
			RelPath:    f.RelPath,
			OutPath:    outputPath(f.RelPath),
			Section:    sectionOf(f.RelPath),
			Meta:       meta,
			Doc:        doc,
			Title:      resolveTitle(meta, render.ExtractTitle(doc), f.RelPath),
		})
	}
	bs.Articles = articles

	slog.Debug("Articles parsed",
		logfields.Count(len(articles)),
		slog.Int("drafts_skipped", bs.Report.SkippedDrafts))
	return nil
}
