// Package commands holds the kong command tree for the mdpage CLI.
package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdpage/internal/config"
	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/git"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/workspace"
)

// DefaultConfigPath is where mdpage looks for configuration unless -c
// points elsewhere.
const DefaultConfigPath = "mdpage.yaml"

// Global carries cross-command state bound into every Run.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command tree and global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"mdpage.yaml"`
	Verbose int    `short:"v" type:"counter" help:"Increase log verbosity"`

	Render  RenderCmd  `cmd:"" help:"Render one markdown document to HTML"`
	Build   BuildCmd   `cmd:"" help:"Build the article tree into a static site"`
	Serve   ServeCmd   `cmd:"" help:"Build and serve the site with live reload"`
	Preview PreviewCmd `cmd:"" help:"Render an article to the terminal"`
	Export  ExportCmd  `cmd:"" help:"Build and pack the site into a tar archive"`
	Check   CheckCmd   `cmd:"" help:"Verify the links of the rendered site"`
	Lint    LintCmd    `cmd:"" help:"Check article files for frontmatter and fence hygiene"`
	Search  SearchCmd  `cmd:"" help:"Fuzzy-search article titles and headings"`
	History HistoryCmd `cmd:"" help:"Show recent build records from the event store"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// AfterApply runs after flag parsing; set up logging once so even
// config loading logs consistently.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose > 0 {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file, or falls back to built-in
// defaults when the default path is absent. A missing file named
// explicitly with -c is an error.
func loadConfig(root *CLI) (*config.Config, error) {
	if _, err := os.Stat(root.Config); err == nil {
		cfg, err := config.Load(root.Config)
		if err != nil {
			return nil, ferrors.ConfigError("failed to load configuration").
				WithCause(err).
				WithContext("path", root.Config).
				Build()
		}
		configureLogging(cfg, root.Verbose)
		return cfg, nil
	}
	if root.Config != DefaultConfigPath {
		return nil, ferrors.ConfigError("configuration file not found").
			WithContext("path", root.Config).
			Build()
	}
	return config.Default(), nil
}

// configureLogging re-levels the default logger from the config file.
// The -v flag always wins.
func configureLogging(cfg *config.Config, verbose int) {
	level := cfg.Logging.Level.Slog()
	if verbose > 0 {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// resolveSource turns the configured source into a local directory,
// cloning repository sources into an ephemeral workspace. The caller
// runs cleanup when done with the directory.
func resolveSource(ctx context.Context, cfg *config.Config) (string, func(), error) {
	if cfg.Source.Repo == "" {
		dir := cfg.Source.Dir
		if dir == "" {
			dir = config.DefaultSourceDir
		}
		if commit, err := git.Head(dir); err == nil {
			slog.Debug("Source is a git checkout",
				logfields.Path(dir),
				slog.String("commit", commit))
		}
		return dir, func() {}, nil
	}

	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return "", nil, ferrors.FileSystemError("failed to create workspace").
			WithCause(err).
			Build()
	}
	cleanup := func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean up workspace", logfields.Error(err))
		}
	}

	client := git.NewClient(ws.Path())
	res, err := client.Clone(ctx, cfg.Source.Repo, cfg.Source.Branch)
	if err != nil {
		cleanup()
		return "", nil, err
	}

	dir := res.Path
	if cfg.Source.Dir != "" {
		// A dir alongside a repo names the article subtree inside it.
		dir = subdirInClone(res.Path, cfg.Source.Dir)
	}
	return dir, cleanup, nil
}

// subdirInClone joins a configured subdirectory onto a clone root,
// refusing paths that would escape it.
func subdirInClone(root, sub string) string {
	if filepath.IsAbs(sub) {
		slog.Warn("Ignoring absolute source dir for repository source", logfields.Path(sub))
		return root
	}
	joined := filepath.Join(root, sub)
	rel, err := filepath.Rel(root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		slog.Warn("Ignoring source dir outside the clone", logfields.Path(sub))
		return root
	}
	return joined
}
