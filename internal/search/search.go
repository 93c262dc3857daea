// Package search finds articles by fuzzy-matching their titles and
// headings against a query.
package search

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"git.home.luguber.info/inful/mdpage/internal/document"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// EntryKind says which part of an article an index entry points at.
type EntryKind string

const (
	// KindTitle marks the resolved article title.
	KindTitle EntryKind = "title"
	// KindHeading marks a heading inside the article body.
	KindHeading EntryKind = "heading"
)

// Entry is one searchable item.
type Entry struct {
	// Text is what queries match against.
	Text string
	// Kind is title or heading.
	Kind EntryKind
	// Path is the article's source-relative path.
	Path string
	// Section is the article's top-level section, "" for root files.
	Section string
}

// Hit is one ranked search result.
type Hit struct {
	Entry
	// Score is the fuzzy match score; hits come back best first.
	Score int
	// MatchedIndexes are the matched byte offsets in Text.
	MatchedIndexes []int
}

// Index is an in-memory search index over a parsed article tree.
type Index struct {
	entries []Entry
}

// Build indexes the given articles: one entry per resolved title plus
// one per distinct body heading. A heading repeating the title is not
// indexed twice, and headings inside code blocks are never headings.
func Build(articles []site.Article) *Index {
	var entries []Entry
	for _, a := range articles {
		seen := map[string]struct{}{a.Title: {}}
		entries = append(entries, Entry{
			Text:    a.Title,
			Kind:    KindTitle,
			Path:    a.RelPath,
			Section: a.Section,
		})
		if a.Doc == nil {
			continue
		}
		for _, h := range headings(a.Doc) {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			entries = append(entries, Entry{
				Text:    h,
				Kind:    KindHeading,
				Path:    a.RelPath,
				Section: a.Section,
			})
		}
	}
	return &Index{entries: entries}
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Search ranks entries against the query, best match first. At most
// limit hits come back when limit is positive. A blank query matches
// nothing.
func (ix *Index) Search(query string, limit int) []Hit {
	query = strings.TrimSpace(query)
	if query == "" || len(ix.entries) == 0 {
		return nil
	}

	matches := fuzzy.FindFrom(query, entrySource(ix.entries))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	hits := make([]Hit, len(matches))
	for i, m := range matches {
		hits[i] = Hit{
			Entry:          ix.entries[m.Index],
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		}
	}
	return hits
}

// entrySource adapts the entry slice to the fuzzy matcher.
type entrySource []Entry

func (s entrySource) String(i int) string { return s[i].Text }
func (s entrySource) Len() int            { return len(s) }

// headings collects ATX heading texts from the prose blocks of a
// document, in order.
func headings(doc *document.Document) []string {
	var out []string
	for _, b := range doc.Blocks() {
		if b.Kind != document.KindProse {
			continue
		}
		for _, line := range strings.Split(b.Text, "\n") {
			if h, ok := headingText(line); ok {
				out = append(out, h)
			}
		}
	}
	return out
}

// headingText extracts the text of an ATX heading line: one to six
// leading markers followed by a space, with an optional closing marker
// run. Returns false for anything else.
func headingText(line string) (string, bool) {
	rest := strings.TrimLeft(line, " ")
	if len(line)-len(rest) > 3 {
		// Four or more leading spaces is indented code, not a heading.
		return "", false
	}

	level := 0
	for level < len(rest) && rest[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return "", false
	}
	rest = rest[level:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}

	text := strings.TrimSpace(rest)
	// A closing marker run only counts when a space separates it from
	// the text, so "Using C#" keeps its hash.
	if trimmed := strings.TrimRight(text, "#"); trimmed != text {
		if trimmed == "" {
			return "", false
		}
		if cut := strings.TrimRight(trimmed, " \t"); cut != trimmed {
			text = cut
		}
	}
	if text == "" {
		return "", false
	}
	return text, true
}
