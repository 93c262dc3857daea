package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/mdpage/internal/logfields"
)

// indexTemplate is the section-grouped site index. It shares the page
// styling of rendered articles so the site reads as one piece.
const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .Title }}</title>
<style>
body {
  max-width: 72ch;
  margin: 2rem auto;
  padding: 0 1rem;
  font-family: system-ui, -apple-system, sans-serif;
  line-height: 1.6;
  color: #1f2328;
}
h1, h2 { line-height: 1.25; }
a { color: #0969da; text-decoration: none; }
a:hover { text-decoration: underline; }
ul.articles { list-style: none; padding: 0; }
ul.articles li { margin: 0.5rem 0; }
ul.articles .description { color: #59636e; font-size: 0.9em; }
footer { margin-top: 3rem; color: #59636e; font-size: 0.85em; }
</style>
</head>
<body>
<main class="index">
<h1>{{ .Title }}</h1>
{{ if .Description }}<p>{{ .Description }}</p>{{ end }}
{{ range .Sections }}
{{ if .Name }}<h2>{{ .Name }}</h2>{{ end }}
<ul class="articles">
{{ range .Articles }}<li><a href="{{ .Href }}">{{ .Title }}</a>{{ if .Description }} <span class="description">{{ .Description }}</span>{{ end }}</li>
{{ end }}</ul>
{{ end }}
<footer>{{ .Total }} article{{ if ne .Total 1 }}s{{ end }}</footer>
</main>
</body>
</html>
`

var indexTpl = template.Must(template.New("index").Parse(indexTemplate))

type indexData struct {
	Title       string
	Description string
	Sections    []indexSection
	Total       int
}

type indexSection struct {
	Name     string
	Articles []indexEntry
}

type indexEntry struct {
	Href        string
	Title       string
	Description string
}

// stageIndex assembles the index page grouping articles by section.
// When a root article already renders to index.html the generated
// index steps aside.
func (b *Builder) stageIndex(_ context.Context, bs *BuildState) error {
	for _, a := range bs.Articles {
		if a.OutPath == "index.html" {
			slog.Info("Root article provides index.html; skipping generated index",
				logfields.Document(a.RelPath))
			bs.IndexHTML = ""
			return nil
		}
	}

	html, err := buildIndex(b.cfg.Site.Title, b.cfg.Site.Description, bs.Articles)
	if err != nil {
		return NewFatalStageError(StageIndex, err)
	}
	bs.IndexHTML = html
	return nil
}

// buildIndex renders the index page for a set of articles. Root-level
// articles list first without a heading; sections follow sorted by
// name with title-cased headings.
func buildIndex(title, description string, articles []Article) (string, error) {
	groups := make(map[string][]indexEntry)
	for _, a := range articles {
		groups[a.Section] = append(groups[a.Section], indexEntry{
			Href:        a.OutPath,
			Title:       a.Title,
			Description: a.Meta.Description,
		})
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var sections []indexSection
	if root, ok := groups[""]; ok {
		sections = append(sections, indexSection{Articles: sortEntries(root)})
	}
	for _, name := range names {
		sections = append(sections, indexSection{
			Name:     sectionDisplayName(name),
			Articles: sortEntries(groups[name]),
		})
	}

	total := 0
	for _, s := range sections {
		total += len(s.Articles)
	}

	var buf bytes.Buffer
	data := indexData{Title: title, Description: description, Sections: sections, Total: total}
	if err := indexTpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render index page: %w", err)
	}
	return buf.String(), nil
}

// sortEntries orders index entries by title, falling back to href so
// identical titles stay stable.
func sortEntries(entries []indexEntry) []indexEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := strings.ToLower(entries[i].Title), strings.ToLower(entries[j].Title)
		if ti != tj {
			return ti < tj
		}
		return entries[i].Href < entries[j].Href
	})
	return entries
}

// sectionDisplayName turns a directory name into a heading: separators
// become spaces and words are title-cased.
func sectionDisplayName(section string) string {
	s := strings.ReplaceAll(section, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.English).String(s)
}
