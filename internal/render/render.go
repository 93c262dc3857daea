// Package render turns a parsed block sequence into HTML.
//
// Code blocks are emitted into distinct containers so that styling and
// client-side tooling can address them directly; prose blocks pass
// through goldmark. The renderer holds no per-document state and is
// safe for reuse across documents.
package render

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/mdpage/internal/document"
)

// Options controls page assembly.
type Options struct {
	// Title overrides the derived page title.
	Title string
	// Fragment emits only the rendered body without the HTML page shell.
	Fragment bool
}

// Renderer converts documents to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New creates a Renderer with the standard markdown configuration:
// GFM extensions, auto heading IDs, and raw HTML passthrough so
// tutorial prose can embed inline markup.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Render produces the HTML for a document. With Options.Fragment the
// result is the bare body; otherwise it is a complete standalone page.
func (r *Renderer) Render(doc *document.Document, opts Options) (string, error) {
	body, err := r.renderBody(doc)
	if err != nil {
		return "", err
	}
	if opts.Fragment {
		return body, nil
	}

	title := opts.Title
	if title == "" {
		title = ExtractTitle(doc)
	}
	if title == "" {
		title = "Untitled"
	}
	return renderPage(title, body)
}

// renderBody concatenates per-block HTML in document order.
func (r *Renderer) renderBody(doc *document.Document) (string, error) {
	var sb strings.Builder
	for _, b := range doc.Blocks() {
		switch b.Kind {
		case document.KindProse:
			frag, err := r.renderProse(b)
			if err != nil {
				return "", err
			}
			sb.WriteString(frag)
		case document.KindCode:
			sb.WriteString(renderCode(b))
		default:
			return "", fmt.Errorf("unknown block kind %q at line %d", b.Kind, b.Line)
		}
	}
	return sb.String(), nil
}

// renderProse converts one prose block through goldmark.
func (r *Renderer) renderProse(b document.Block) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(b.Text), &buf); err != nil {
		return "", fmt.Errorf("render prose block at line %d: %w", b.Line, err)
	}
	return buf.String(), nil
}

// renderCode wraps one code block in its container. The text is
// HTML-escaped verbatim; no highlighting happens server-side.
func renderCode(b document.Block) string {
	var sb strings.Builder
	if b.Lang != "" {
		lang := html.EscapeString(b.Lang)
		sb.WriteString(`<div class="code-block" data-lang="` + lang + `">`)
		sb.WriteString("\n<pre><code class=\"language-" + lang + "\">")
	} else {
		sb.WriteString(`<div class="code-block">`)
		sb.WriteString("\n<pre><code>")
	}
	sb.WriteString(html.EscapeString(b.Text))
	sb.WriteString("</code></pre>\n</div>\n")
	return sb.String()
}

var titlePattern = regexp.MustCompile(`(?m)^# (.+)$`)

// ExtractTitle returns the first level-one heading found in prose, or
// "" when the document has none.
func ExtractTitle(doc *document.Document) string {
	for _, b := range doc.Blocks() {
		if b.Kind != document.KindProse {
			continue
		}
		if m := titlePattern.FindStringSubmatch(b.Text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
