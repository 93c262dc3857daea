package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdpage/internal/config"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/linkcheck"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// CheckCmd implements the 'check' command: build the site, then verify
// every link in the rendered pages.
type CheckCmd struct {
	Source   string `short:"s" help:"Article source directory (overrides config)"`
	External bool   `help:"Also verify external URLs over HTTP"`
}

func (c *CheckCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if c.Source != "" {
		cfg.Source.Dir = c.Source
	}
	if cfg.LinkCheck == nil {
		cfg.LinkCheck = &config.LinkCheckConfig{Enabled: true}
	}
	if c.External {
		cfg.LinkCheck.External = true
	}

	sourceDir, cleanup, err := resolveSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := site.NewBuilder(cfg).Build(ctx, sourceDir); err != nil {
		return err
	}

	cache := checkCache(cfg)
	defer func() {
		if err := cache.Close(); err != nil {
			slog.Warn("Failed to close link cache", logfields.Error(err))
		}
	}()

	result, err := linkcheck.New(cfg, linkcheck.WithCache(cache)).Run(ctx, cfg.Output.Directory)
	if err != nil {
		return err
	}

	for _, b := range result.Broken {
		location := b.Error
		if b.Status > 0 {
			location = fmt.Sprintf("HTTP %d", b.Status)
		}
		fmt.Printf("BROKEN %s (%s)\n", b.URL, location)
		for _, page := range b.Pages {
			fmt.Printf("  referenced by %s\n", page)
		}
	}
	fmt.Printf("%d links checked, %d broken\n", result.Checked, len(result.Broken))

	if len(result.Broken) > 0 {
		return ferrors.RuntimeError("broken links found").
			WithContext("broken", fmt.Sprintf("%d", len(result.Broken))).
			Build()
	}
	return nil
}

// checkCache wires the NATS result cache when configured, degrading to
// no caching for a one-shot run.
func checkCache(cfg *config.Config) linkcheck.Cache {
	if cfg.Serve == nil || cfg.Serve.NATS == nil {
		return linkcheck.NoopCache{}
	}
	cache, err := linkcheck.NewNATSCache(cfg.Serve.NATS)
	if err != nil {
		slog.Warn("Link cache unavailable; checking without cache", logfields.Error(err))
		return linkcheck.NoopCache{}
	}
	return cache
}
