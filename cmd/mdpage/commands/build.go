package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Source string `short:"s" help:"Article source directory (overrides config)"`
	Repo   string `short:"r" help:"Git repository to render from (overrides config)"`
	Branch string `short:"b" help:"Branch to clone (with --repo)"`
	Output string `short:"o" help:"Output directory for the generated site (overrides config)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	b.applyOverrides(cfg)

	sourceDir, cleanup, err := resolveSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := site.NewBuilder(cfg).Build(ctx, sourceDir)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	return nil
}

func (b *BuildCmd) applyOverrides(cfg *config.Config) {
	if b.Repo != "" {
		cfg.Source.Repo = b.Repo
	}
	if b.Branch != "" {
		cfg.Source.Branch = b.Branch
	}
	if b.Source != "" {
		cfg.Source.Dir = b.Source
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
}
