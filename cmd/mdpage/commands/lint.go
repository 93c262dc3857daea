package commands

import (
	"fmt"
	"os"

	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Path   string `arg:"" optional:"" help:"File or directory to lint (default: the configured source directory)"`
	Source string `short:"s" help:"Article source directory (overrides config)"`
	Format string `short:"f" default:"text" enum:"text,json" help:"Output format (text or json)"`
	Quiet  bool   `short:"q" help:"Only show errors, suppress warnings"`
	Fix    bool   `help:"Apply automatic fixes where possible"`
	DryRun bool   `help:"Show what would be fixed without writing (requires --fix)"`
}

func (l *LintCmd) Run(_ *Global, root *CLI) error {
	if l.DryRun && !l.Fix {
		return ferrors.ValidationError("--dry-run requires --fix").Build()
	}

	path := l.Path
	if path == "" {
		path = l.Source
	}
	if path == "" {
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}
		path = cfg.Source.Dir
	}
	if _, err := os.Stat(path); err != nil {
		return ferrors.FileSystemError("lint path not found").
			WithContext("path", path).
			Build()
	}

	linter := lint.NewLinter(&lint.Config{Quiet: l.Quiet, Format: l.Format})

	if l.Fix {
		return l.runFix(linter, path)
	}

	result, err := linter.LintPath(path)
	if err != nil {
		return fmt.Errorf("linting failed: %w", err)
	}

	if err := lint.NewFormatter(l.Format).Format(os.Stdout, result, path); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if result.HasErrors() {
		return ferrors.RuntimeError("articles have lint errors").
			WithContext("errors", fmt.Sprintf("%d", result.ErrorCount())).
			Build()
	}
	return nil
}

func (l *LintCmd) runFix(linter *lint.Linter, path string) error {
	fixer := lint.NewFixer(linter, l.DryRun)
	result, err := fixer.Fix(path)
	if err != nil {
		return fmt.Errorf("fixing failed: %w", err)
	}

	if l.DryRun {
		fmt.Println("DRY RUN: no changes applied")
	}
	for _, f := range result.Files {
		for _, change := range f.Changes {
			fmt.Printf("  %s: %s\n", f.FilePath, change)
		}
		if f.Error != nil {
			fmt.Printf("  %s: ERROR: %v\n", f.FilePath, f.Error)
		}
	}
	fmt.Print(result.Summary())

	if result.HasErrors() {
		return ferrors.RuntimeError("some files could not be fixed").Build()
	}
	return nil
}
