// Package site builds a static site out of an article tree: it walks
// the source directory, parses and renders every article through the
// core pipeline, and writes the mirrored HTML tree plus a section
// index. The build runs as an ordered stage sequence with per-stage
// timing, and an unchanged content signature short-circuits the whole
// run.
package site

import (
	"path"
	"strings"

	"git.home.luguber.info/inful/mdpage/internal/document"
	"git.home.luguber.info/inful/mdpage/internal/frontmatter"
)

// Article is one source file carried through the build stages. Parse
// fills Meta, Doc, and Title; render fills HTML.
type Article struct {
	// SourcePath is the absolute path on disk.
	SourcePath string
	// RelPath is the slash-separated path relative to the source root.
	RelPath string
	// OutPath is the slash-separated output path of the rendered page.
	OutPath string
	// Section is the first path element of RelPath, "" for root files.
	Section string
	// Meta is the typed frontmatter view.
	Meta frontmatter.Meta
	// Doc is the parsed block sequence.
	Doc *document.Document
	// Title is the resolved page title.
	Title string
	// HTML is the rendered standalone page.
	HTML string
}

// outputPath maps a source rel path to its mirrored .html path.
func outputPath(relPath string) string {
	ext := path.Ext(relPath)
	return strings.TrimSuffix(relPath, ext) + ".html"
}

// sectionOf returns the first path element of a rel path, or "" for
// files at the source root.
func sectionOf(relPath string) string {
	if i := strings.IndexByte(relPath, '/'); i >= 0 {
		return relPath[:i]
	}
	return ""
}

// resolveTitle picks the article title: frontmatter title first, then
// the first level-one heading, then the humanized file name.
func resolveTitle(meta frontmatter.Meta, headingTitle, relPath string) string {
	if t := strings.TrimSpace(meta.Title); t != "" {
		return t
	}
	if headingTitle != "" {
		return headingTitle
	}
	return humanizeName(relPath)
}

// humanizeName turns a file path into a display title: base name
// without extension, separators replaced by spaces.
func humanizeName(relPath string) string {
	name := path.Base(relPath)
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "Untitled"
	}
	return name
}
