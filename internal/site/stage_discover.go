package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdpage/internal/logfields"
)

// ignoreMarker excludes a directory tree from the build when a file
// with this name sits in it.
const ignoreMarker = ".mdpageignore"

// SourceFile is one discovered file, article or asset. Articles carry
// their content; assets only the streaming digest.
type SourceFile struct {
	Path    string // absolute path on disk
	RelPath string // slash-separated path relative to the source root
	Digest  string // blake3 hex digest of the content
	Content []byte // loaded for articles, nil for assets
}

// stageDiscover walks the source tree, loads article contents, digests
// everything, and decides whether the build can be skipped.
func (b *Builder) stageDiscover(_ context.Context, bs *BuildState) error {
	info, err := os.Stat(bs.SourceDir)
	if err != nil {
		return NewFatalStageError(StageDiscover, fmt.Errorf("source directory: %w", err))
	}
	if !info.IsDir() {
		return NewFatalStageError(StageDiscover, fmt.Errorf("source path is not a directory: %s", bs.SourceDir))
	}

	files, assets, err := walkSource(bs.SourceDir, b.cfg.Source.Include, b.cfg.Source.Exclude)
	if err != nil {
		return NewFatalStageError(StageDiscover, err)
	}
	bs.Files = files
	bs.Assets = assets

	if len(files) == 0 {
		slog.Warn("No articles found under source directory", logfields.Path(bs.SourceDir))
	}
	slog.Info("Articles discovered",
		logfields.Count(len(files)),
		slog.Int("assets", len(assets)))

	all := make([]SourceFile, 0, len(files)+len(assets))
	all = append(all, files...)
	all = append(all, assets...)
	bs.Signature = computeSignature(b.cfg.Snapshot(), all)
	bs.Report.Signature = bs.Signature

	if b.cfg.Build.SkipIfUnchanged {
		bs.Unchanged = bs.Signature == readStoredSignature(bs.OutputDir)
	}
	return nil
}

// walkSource collects articles and assets under root. Hidden entries
// and trees marked with an ignore file are skipped; exclude patterns
// apply to both kinds, include patterns narrow articles only.
func walkSource(root string, include, exclude []string) (files, assets []SourceFile, err error) {
	if _, statErr := os.Stat(filepath.Join(root, ignoreMarker)); statErr == nil {
		slog.Info("Source tree is marked ignored; nothing to build", logfields.Path(root))
		return nil, nil, nil
	}

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if p == root {
			return nil
		}
		name := d.Name()

		if d.IsDir() {
			if strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			if _, statErr := os.Stat(filepath.Join(p, ignoreMarker)); statErr == nil {
				slog.Debug("Skipping ignored tree", logfields.Path(p))
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || name == ignoreMarker {
			return nil
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return fmt.Errorf("relative path for %s: %w", p, relErr)
		}
		rel = filepath.ToSlash(rel)

		if matchesAny(exclude, rel) {
			return nil
		}

		switch {
		case isArticleFile(name):
			if len(include) > 0 && !matchesAny(include, rel) {
				return nil
			}
			content, readErr := os.ReadFile(p) // #nosec G304 -- path comes from the discovery walk
			if readErr != nil {
				return fmt.Errorf("read article %s: %w", rel, readErr)
			}
			files = append(files, SourceFile{
				Path:    p,
				RelPath: rel,
				Digest:  fileDigest(content),
				Content: content,
			})
		case isAssetFile(name):
			digest, hashErr := hashFile(p)
			if hashErr != nil {
				return fmt.Errorf("hash asset %s: %w", rel, hashErr)
			}
			assets = append(assets, SourceFile{Path: p, RelPath: rel, Digest: digest})
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk source tree: %w", err)
	}
	return files, assets, nil
}

// matchesAny reports whether rel matches one of the glob patterns. A
// pattern ending in "/*" also covers the whole subtree beneath it, so
// "drafts/*" excludes nested files too.
func matchesAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		if dir, found := strings.CutSuffix(pat, "/*"); found {
			if rel == dir || strings.HasPrefix(rel, dir+"/") {
				return true
			}
		}
	}
	return false
}

// isArticleFile checks if a file is a renderable article.
func isArticleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// isAssetFile checks if a file is an asset copied verbatim.
func isAssetFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp", ".ico",
		".pdf", ".mp4", ".webm", ".ogv",
		".css", ".js", ".txt", ".csv", ".json":
		return true
	}
	return false
}
