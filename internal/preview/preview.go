// Package preview renders article source as ANSI-styled terminal
// output.
package preview

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"

	"git.home.luguber.info/inful/mdpage/internal/fence"
	"git.home.luguber.info/inful/mdpage/internal/frontmatterops"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/render"
)

// DefaultWidth is the wrap column used when none is configured.
const DefaultWidth = 80

// Options controls terminal rendering.
type Options struct {
	// Style is a glamour style name. Empty picks light or dark from the
	// terminal, plain text when stdout is not one.
	Style string
	// Width is the wrap column. Values <= 0 use DefaultWidth.
	Width int
}

// Previewer renders articles for the terminal. It holds no
// per-document state and is safe for reuse.
type Previewer struct {
	opts Options
}

// New creates a Previewer.
func New(opts Options) *Previewer {
	if opts.Style == "" {
		opts.Style = "auto"
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	return &Previewer{opts: opts}
}

// Render converts article source to terminal output. Frontmatter is
// stripped, a frontmatter title becomes the top heading when the body
// has none, and the body must parse the same way a build parses it.
// An unavailable terminal style degrades to the plain body instead of
// failing the preview.
func (p *Previewer) Render(content []byte) (string, error) {
	meta, body, err := frontmatterops.ReadMeta(content)
	if err != nil {
		return "", err
	}
	doc, err := fence.Parse(body)
	if err != nil {
		return "", err
	}

	text := string(body)
	if t := strings.TrimSpace(meta.Title); t != "" && render.ExtractTitle(doc) == "" {
		text = "# " + t + "\n\n" + text
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(p.opts.Style),
		glamour.WithWordWrap(p.opts.Width),
	)
	if err != nil {
		slog.Debug("Terminal style unavailable; previewing plain text", logfields.Error(err))
		return text, nil
	}

	out, err := r.Render(text)
	if err != nil {
		slog.Debug("Terminal rendering failed; previewing plain text", logfields.Error(err))
		return text, nil
	}
	return out, nil
}
