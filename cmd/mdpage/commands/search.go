package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdpage/internal/search"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// SearchCmd implements the 'search' command.
type SearchCmd struct {
	Query  string `arg:"" help:"Text to match against titles and headings"`
	Source string `short:"s" help:"Article source directory (overrides config)"`
	Limit  int    `short:"n" help:"Maximum number of results (overrides config)"`
}

func (s *SearchCmd) Run(_ *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Source != "" {
		cfg.Source.Dir = s.Source
	}
	limit := s.Limit
	if limit <= 0 {
		limit = cfg.Search.MaxResults
	}

	sourceDir, cleanup, err := resolveSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	articles, err := site.NewBuilder(cfg).Load(ctx, sourceDir)
	if err != nil {
		return err
	}

	hits := search.Build(articles).Search(s.Query, limit)
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for _, h := range hits {
		if h.Kind == search.KindHeading {
			fmt.Printf("%s: %s (heading)\n", h.Path, h.Text)
			continue
		}
		fmt.Printf("%s: %s\n", h.Path, h.Text)
	}
	return nil
}
