package commands

import (
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/mdpage/internal/fence"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/frontmatterops"
	"git.home.luguber.info/inful/mdpage/internal/render"
)

// RenderCmd implements the 'render' command: one document in, HTML out.
type RenderCmd struct {
	Input    string `arg:"" optional:"" help:"Markdown file to render, or '-' for stdin (default stdin)"`
	Output   string `short:"o" help:"Output file (default stdout)"`
	Fragment bool   `help:"Emit only the rendered body, no page shell"`
	Title    string `help:"Override the page title"`
}

func (r *RenderCmd) Run(_ *Global, _ *CLI) error {
	src, name, err := readInput(r.Input)
	if err != nil {
		return ferrors.FileSystemError("failed to read input").
			WithCause(err).
			WithContext("input", name).
			Build()
	}

	meta, body, err := frontmatterops.ReadMeta(src)
	if err != nil {
		return ferrors.ParseError("invalid frontmatter").
			WithCause(err).
			WithContext("input", name).
			Build()
	}

	doc, err := fence.Parse(body)
	if err != nil {
		return ferrors.ParseError("document rejected").
			WithCause(err).
			WithContext("input", name).
			Build()
	}

	title := r.Title
	if title == "" {
		title = strings.TrimSpace(meta.Title)
	}

	html, err := render.New().Render(doc, render.Options{
		Title:    title,
		Fragment: r.Fragment,
	})
	if err != nil {
		return err
	}

	return writeOutput(r.Output, html)
}

// readInput loads the document source. Empty or "-" reads stdin.
func readInput(input string) ([]byte, string, error) {
	if input == "" || input == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, "stdin", err
	}
	data, err := os.ReadFile(input)
	return data, input, err
}

// writeOutput writes the result to a file or stdout.
func writeOutput(output, content string) error {
	if output == "" {
		_, err := io.WriteString(os.Stdout, content)
		return err
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write output").
			WithCause(err).
			WithContext("output", output).
			Build()
	}
	return nil
}
