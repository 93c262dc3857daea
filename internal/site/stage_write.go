package site

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/mdpage/internal/logfields"
)

// stageWrite lands the rendered pages, copied assets, index page, and
// signature in the output directory. With output.clean the previous
// tree is removed first.
func (b *Builder) stageWrite(ctx context.Context, bs *BuildState) error {
	if b.cfg.Output.Clean {
		if err := os.RemoveAll(bs.OutputDir); err != nil {
			return NewFatalStageError(StageWrite, fmt.Errorf("clean output directory: %w", err))
		}
	}
	if err := os.MkdirAll(bs.OutputDir, 0o750); err != nil {
		return NewFatalStageError(StageWrite, fmt.Errorf("create output directory: %w", err))
	}

	for i := range bs.Articles {
		select {
		case <-ctx.Done():
			return NewCanceledStageError(StageWrite, ctx.Err())
		default:
		}
		a := &bs.Articles[i]
		dst := filepath.Join(bs.OutputDir, filepath.FromSlash(a.OutPath))
		if err := writePage(dst, []byte(a.HTML)); err != nil {
			return NewFatalStageError(StageWrite, fmt.Errorf("write %s: %w", a.OutPath, err))
		}
		slog.Debug("Wrote article", logfields.Document(a.RelPath), logfields.Path(a.OutPath))
	}

	for _, asset := range bs.Assets {
		select {
		case <-ctx.Done():
			return NewCanceledStageError(StageWrite, ctx.Err())
		default:
		}
		dst := filepath.Join(bs.OutputDir, filepath.FromSlash(asset.RelPath))
		if err := copyFile(asset.Path, dst); err != nil {
			return NewFatalStageError(StageWrite, fmt.Errorf("copy asset %s: %w", asset.RelPath, err))
		}
	}
	bs.Report.Assets = len(bs.Assets)

	if bs.IndexHTML != "" {
		dst := filepath.Join(bs.OutputDir, "index.html")
		if err := writePage(dst, []byte(bs.IndexHTML)); err != nil {
			return NewFatalStageError(StageWrite, fmt.Errorf("write index: %w", err))
		}
	}

	if err := writeSignature(bs.OutputDir, bs.Signature); err != nil {
		return NewFatalStageError(StageWrite, err)
	}

	slog.Info("Site written",
		logfields.Path(bs.OutputDir),
		logfields.Count(len(bs.Articles)),
		slog.Int("assets", len(bs.Assets)))
	return nil
}

// writePage writes one rendered page, creating parent directories.
func writePage(dst string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	// #nosec G306 -- rendered pages are public site content
	return os.WriteFile(dst, content, 0o644)
}

// copyFile streams src to dst, creating parent directories.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}

	in, err := os.Open(src) // #nosec G304 -- src comes from the discovery walk
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst) // #nosec G304 -- dst is inside the output directory
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
