package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/daemon"
)

// stopTimeout bounds graceful daemon shutdown.
const stopTimeout = 30 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Source    string `short:"s" help:"Article source directory (overrides config)"`
	Repo      string `short:"r" help:"Git repository to render from (overrides config)"`
	Branch    string `short:"b" help:"Branch to clone (with --repo)"`
	Output    string `short:"o" help:"Output directory for the generated site (overrides config)"`
	SitePort  int    `help:"Site server port (overrides config)"`
	AdminPort int    `help:"Admin server port (overrides config)"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	s.applyOverrides(cfg)

	sourceDir, cleanup, err := resolveSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	d, err := daemon.New(cfg, sourceDir)
	if err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slog.Info("Shutdown signal received")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	return d.Stop(stopCtx)
}

func (s *ServeCmd) applyOverrides(cfg *config.Config) {
	if cfg.Serve == nil {
		cfg.Serve = config.DefaultServe()
	}
	if s.Repo != "" {
		cfg.Source.Repo = s.Repo
	}
	if s.Branch != "" {
		cfg.Source.Branch = s.Branch
	}
	if s.Source != "" {
		cfg.Source.Dir = s.Source
	}
	if s.Output != "" {
		cfg.Output.Directory = s.Output
	}
	if s.SitePort != 0 {
		cfg.Serve.HTTP.SitePort = s.SitePort
	}
	if s.AdminPort != 0 {
		cfg.Serve.HTTP.AdminPort = s.AdminPort
	}
}
