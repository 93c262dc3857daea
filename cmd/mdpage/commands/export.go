package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/export"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// ExportCmd implements the 'export' command: build the site, then pack
// it into a tar archive with a manifest.
type ExportCmd struct {
	Source      string `short:"s" help:"Article source directory (overrides config)"`
	Output      string `short:"o" help:"Archive file to write (default derived from format and date)"`
	Compression string `help:"Archive compression: xz, gzip, or none (overrides config)"`
}

func (e *ExportCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if e.Source != "" {
		cfg.Source.Dir = e.Source
	}

	format := cfg.Export.Format
	if e.Compression != "" {
		format = config.NormalizeArchiveFormat(e.Compression)
		if format == "" {
			return ferrors.ValidationError("unknown compression format").
				WithContext("compression", e.Compression).
				Build()
		}
	}
	if format == "" {
		format = config.ArchiveTarXz
	}

	sourceDir, cleanup, err := resolveSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := site.NewBuilder(cfg).Build(ctx, sourceDir); err != nil {
		return err
	}

	outPath := e.Output
	if outPath == "" {
		outPath = export.ArchiveName(format, time.Now())
	}

	_, err = export.New(cfg).Export(ctx, cfg.Output.Directory, outPath, format)
	return err
}
