package search

import (
	"testing"

	"git.home.luguber.info/inful/mdpage/internal/fence"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

func article(t *testing.T, relPath, title, body string) site.Article {
	t.Helper()
	doc, err := fence.Parse([]byte(body))
	if err != nil {
		t.Fatalf("failed to parse body for %s: %v", relPath, err)
	}
	return site.Article{
		RelPath: relPath,
		Section: sectionOf(relPath),
		Title:   title,
		Doc:     doc,
	}
}

func sectionOf(relPath string) string {
	for i := 0; i < len(relPath); i++ {
		if relPath[i] == '/' {
			return relPath[:i]
		}
	}
	return ""
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	return Build([]site.Article{
		article(t, "intro.md", "Introduction",
			"# Introduction\n\nWelcome.\n\n## Getting Started\n"),
		article(t, "guides/deploy.md", "Deployment Guide",
			"# Deployment Guide\n\n## Rolling Updates\n\n### Canary Releases\n"),
		article(t, "guides/config.md", "Configuration",
			"# Configuration\n\n## Environment Variables\n"),
	})
}

func TestBuildIndexesTitlesAndHeadings(t *testing.T) {
	ix := testIndex(t)

	// Three titles plus four headings; the title-repeating H1s are not
	// indexed twice.
	if ix.Len() != 7 {
		t.Fatalf("Len() = %d, want 7", ix.Len())
	}

	hits := ix.Search("Canary", 0)
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Text != "Canary Releases" {
		t.Errorf("Text = %q, want %q", hits[0].Text, "Canary Releases")
	}
	if hits[0].Kind != KindHeading {
		t.Errorf("Kind = %q, want %q", hits[0].Kind, KindHeading)
	}
	if hits[0].Path != "guides/deploy.md" {
		t.Errorf("Path = %q, want %q", hits[0].Path, "guides/deploy.md")
	}
	if hits[0].Section != "guides" {
		t.Errorf("Section = %q, want %q", hits[0].Section, "guides")
	}
}

func TestSearchRanksExactTitleFirst(t *testing.T) {
	ix := testIndex(t)

	hits := ix.Search("Configuration", 0)
	if len(hits) == 0 {
		t.Fatal("expected hits for Configuration")
	}
	if hits[0].Text != "Configuration" || hits[0].Kind != KindTitle {
		t.Errorf("top hit = %q (%s), want Configuration title", hits[0].Text, hits[0].Kind)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits out of score order at %d: %d > %d", i, hits[i].Score, hits[i-1].Score)
		}
	}
}

func TestSearchAbbreviatedQuery(t *testing.T) {
	ix := testIndex(t)

	hits := ix.Search("envvar", 0)
	if len(hits) == 0 {
		t.Fatal("expected fuzzy hits for envvar")
	}
	if hits[0].Text != "Environment Variables" {
		t.Errorf("top hit = %q, want %q", hits[0].Text, "Environment Variables")
	}
}

func TestSearchLimit(t *testing.T) {
	ix := testIndex(t)

	all := ix.Search("e", 0)
	if len(all) < 2 {
		t.Fatalf("need at least 2 hits to exercise the limit, got %d", len(all))
	}
	limited := ix.Search("e", 1)
	if len(limited) != 1 {
		t.Errorf("got %d hits with limit 1", len(limited))
	}
	if limited[0].Text != all[0].Text {
		t.Errorf("limited top hit %q differs from unlimited %q", limited[0].Text, all[0].Text)
	}
}

func TestSearchBlankQuery(t *testing.T) {
	ix := testIndex(t)

	if hits := ix.Search("   ", 0); hits != nil {
		t.Errorf("blank query returned %d hits", len(hits))
	}
	if hits := ix.Search("", 0); hits != nil {
		t.Errorf("empty query returned %d hits", len(hits))
	}
}

func TestSearchNoMatch(t *testing.T) {
	ix := testIndex(t)

	if hits := ix.Search("zzzzqqqq", 0); len(hits) != 0 {
		t.Errorf("got %d hits for a nonsense query", len(hits))
	}
}

func TestBuildSkipsHeadingsInCodeBlocks(t *testing.T) {
	ix := Build([]site.Article{
		article(t, "shell.md", "Shell Tricks",
			"# Shell Tricks\n\n```sh\n# not a heading\necho hi\n```\n\n## Real Heading\n"),
	})

	if hits := ix.Search("not a heading", 0); len(hits) != 0 {
		t.Errorf("indexed a comment inside a code block: %d hits", len(hits))
	}
	if hits := ix.Search("Real Heading", 0); len(hits) != 1 {
		t.Errorf("got %d hits for the prose heading, want 1", len(hits))
	}
}

func TestBuildDeduplicatesRepeatedHeadings(t *testing.T) {
	ix := Build([]site.Article{
		article(t, "faq.md", "FAQ",
			"## Example\n\ntext\n\n## Example\n\nmore\n"),
	})

	// Title plus one Example entry.
	if ix.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ix.Len())
	}
}

func TestHeadingText(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"# Title", "Title", true},
		{"###### Deep", "Deep", true},
		{"## Closed ##", "Closed", true},
		{"## Using C#", "Using C#", true},
		{"  ## Indented", "Indented", true},
		{"    # Code", "", false},
		{"#NoSpace", "", false},
		{"####### Seven", "", false},
		{"###", "", false},
		{"### ###", "", false},
		{"plain text", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := headingText(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("headingText(%q) = %q, %v; want %q, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}
