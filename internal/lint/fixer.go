package lint

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdpage/internal/frontmatterops"
)

// Fixer applies automatic fixes for fixable lint issues: missing uids,
// missing or stale fingerprints, and lastmod stamping. Fence errors are
// never auto-fixed.
type Fixer struct {
	linter *Linter
	dryRun bool
}

// NewFixer creates a fixer backed by the given linter. In dry-run mode
// it reports what would change without writing any file.
func NewFixer(linter *Linter, dryRun bool) *Fixer {
	return &Fixer{linter: linter, dryRun: dryRun}
}

// FileFix records the outcome of fixing a single file.
type FileFix struct {
	FilePath string
	Changes  []string
	Success  bool
	Error    error
}

// FixResult contains the results of a fix operation.
type FixResult struct {
	Files       []FileFix
	IssuesFixed int
	Errors      []error
}

// HasErrors reports whether any file could not be fixed.
func (fr *FixResult) HasErrors() bool {
	return len(fr.Errors) > 0
}

// Summary returns a human-readable summary of the fix operation.
func (fr *FixResult) Summary() string {
	var b strings.Builder
	changed := 0
	for _, f := range fr.Files {
		if f.Success && len(f.Changes) > 0 {
			changed++
		}
	}
	fmt.Fprintf(&b, "Files changed: %d\n", changed)
	fmt.Fprintf(&b, "Issues fixed: %d\n", fr.IssuesFixed)
	if len(fr.Errors) > 0 {
		fmt.Fprintf(&b, "Errors encountered: %d\n", len(fr.Errors))
	}
	return b.String()
}

// Fix lints path and applies fixes for every fixable issue found.
func (f *Fixer) Fix(path string) (*FixResult, error) {
	result, err := f.linter.LintPath(path)
	if err != nil {
		return nil, fmt.Errorf("linting before fix: %w", err)
	}

	counts := make(map[string]int)
	for _, issue := range result.Issues {
		if fixableRule(issue.Rule) {
			counts[issue.FilePath]++
		}
	}

	paths := make([]string, 0, len(counts))
	for p := range counts {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fixResult := &FixResult{}
	for _, p := range paths {
		op := f.fixFile(p)
		fixResult.Files = append(fixResult.Files, op)
		if op.Success && len(op.Changes) > 0 {
			fixResult.IssuesFixed += counts[p]
		}
		if op.Error != nil {
			fixResult.Errors = append(fixResult.Errors, op.Error)
		}
	}
	return fixResult, nil
}

func fixableRule(name string) bool {
	switch name {
	case frontmatterUIDRuleName, frontmatterFingerprintRuleName:
		return true
	}
	return false
}

// fixFile ensures uid, fingerprint, and lastmod in a single pass. Files
// without frontmatter get a synthesized header with the body separated
// by a blank line.
func (f *Fixer) fixFile(filePath string) FileFix {
	op := FileFix{FilePath: filePath, Success: true}

	// #nosec G304 -- filePath comes from the lint walk.
	data, err := os.ReadFile(filePath)
	if err != nil {
		op.Success = false
		op.Error = fmt.Errorf("read %s: %w", filePath, err)
		return op
	}

	fields, body, had, style, err := frontmatterops.Read(data)
	if err != nil {
		op.Success = false
		op.Error = fmt.Errorf("unfixable frontmatter in %s: %w", filePath, err)
		return op
	}
	if style.Newline == "" {
		style.Newline = "\n"
	}
	if fields == nil {
		fields = map[string]any{}
	}
	if !had {
		had = true
		if !bytes.HasPrefix(body, []byte(style.Newline)) {
			body = append([]byte(style.Newline), body...)
		}
		op.Changes = append(op.Changes, "added frontmatter")
	}

	if _, changed, uidErr := frontmatterops.EnsureUID(fields); uidErr != nil {
		op.Success = false
		op.Error = fmt.Errorf("ensure uid in %s: %w", filePath, uidErr)
		return op
	} else if changed {
		op.Changes = append(op.Changes, "added uid")
	}

	prevLastmod, _ := fields["lastmod"].(string)
	if _, changed, fpErr := frontmatterops.UpsertFingerprintAndMaybeLastmod(fields, body, time.Now()); fpErr != nil {
		op.Success = false
		op.Error = fmt.Errorf("fingerprint %s: %w", filePath, fpErr)
		return op
	} else if changed {
		op.Changes = append(op.Changes, "restamped fingerprint")
		if lastmod, _ := fields["lastmod"].(string); lastmod != prevLastmod {
			op.Changes = append(op.Changes, "stamped lastmod")
		}
	}

	if len(op.Changes) == 0 || f.dryRun {
		return op
	}

	out, err := frontmatterops.Write(fields, body, had, style)
	if err != nil {
		op.Success = false
		op.Error = fmt.Errorf("serialize %s: %w", filePath, err)
		return op
	}

	info, err := os.Stat(filePath)
	if err != nil {
		op.Success = false
		op.Error = fmt.Errorf("stat %s: %w", filePath, err)
		return op
	}
	if err := os.WriteFile(filePath, out, info.Mode().Perm()); err != nil {
		op.Success = false
		op.Error = fmt.Errorf("write %s: %w", filePath, err)
		return op
	}
	return op
}
