package commands

import (
	"io"
	"os"

	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/preview"
)

// PreviewCmd implements the 'preview' command.
type PreviewCmd struct {
	Input string `arg:"" optional:"" help:"Markdown file to preview, or '-' for stdin (default stdin)"`
	Style string `help:"Glamour style name (auto, dark, light, notty, ...)"`
	Width int    `short:"w" help:"Wrap column" default:"80"`
}

func (p *PreviewCmd) Run(_ *Global, _ *CLI) error {
	src, name, err := readInput(p.Input)
	if err != nil {
		return ferrors.FileSystemError("failed to read input").
			WithCause(err).
			WithContext("input", name).
			Build()
	}

	out, err := preview.New(preview.Options{Style: p.Style, Width: p.Width}).Render(src)
	if err != nil {
		return ferrors.ParseError("document rejected").
			WithCause(err).
			WithContext("input", name).
			Build()
	}

	_, err = io.WriteString(os.Stdout, out)
	return err
}
