package site

import (
	"context"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/mdpage/internal/render"
)

// stageRender renders every article to a standalone page. Rendering is
// fanned out across build.concurrency workers; each goroutine owns one
// slice index so no further synchronization is needed.
func (b *Builder) stageRender(ctx context.Context, bs *BuildState) error {
	if len(bs.Articles) == 0 {
		return nil
	}

	concurrency := b.cfg.Build.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(bs.Articles) {
		concurrency = len(bs.Articles)
	}

	sem := make(chan struct{}, concurrency)
	errs := make([]error, len(bs.Articles))

	var wg sync.WaitGroup
	for i := range bs.Articles {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			a := &bs.Articles[i]
			html, err := b.renderer.Render(a.Doc, render.Options{Title: a.Title})
			if err != nil {
				errs[i] = fmt.Errorf("render %s: %w", a.RelPath, err)
				return
			}
			a.HTML = html
		}(i)
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return NewCanceledStageError(StageRender, ctx.Err())
	default:
	}
	for _, err := range errs {
		if err != nil {
			return NewFatalStageError(StageRender, err)
		}
	}

	bs.Report.Articles = len(bs.Articles)
	return nil
}
