package lint

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Linter applies rules to article files.
type Linter struct {
	cfg   *Config
	rules []Rule
}

// NewLinter creates a linter with the default rule set.
func NewLinter(cfg *Config) *Linter {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}

	return &Linter{
		cfg: cfg,
		rules: []Rule{
			&FenceRule{},
			&FrontmatterUIDRule{},
			&FrontmatterFingerprintRule{},
		},
	}
}

// LintPath lints a file or every article file under a directory.
func (l *Linter) LintPath(path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	result := &Result{Issues: []Issue{}}

	if info.IsDir() {
		err = l.lintDirectory(path, result)
	} else {
		result.FilesTotal = 1
		err = l.lintFile(path, result)
	}

	return result, err
}

func (l *Linter) lintDirectory(dirPath string, result *Result) error {
	return filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Hidden entries stay out of the walk.
		if name := d.Name(); len(name) > 1 && name[0] == '.' {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !IsDocFile(path) {
			return nil
		}

		result.FilesTotal++
		return l.lintFile(path, result)
	})
}

func (l *Linter) lintFile(filePath string, result *Result) error {
	for _, rule := range l.rules {
		if !rule.AppliesTo(filePath) {
			continue
		}

		issues, err := rule.Check(filePath)
		if err != nil {
			return err
		}

		for _, issue := range issues {
			if l.cfg.Quiet && issue.Severity != SeverityError {
				continue
			}
			result.Issues = append(result.Issues, issue)
		}
	}

	return nil
}
