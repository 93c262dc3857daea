package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Formatter formats linting results for output.
type Formatter interface {
	Format(w io.Writer, result *Result, path string) error
}

// NewFormatter creates the formatter for the given format string.
func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return &JSONFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format outputs results grouped per file, worst issues first, with a
// count summary at the end.
func (f *TextFormatter) Format(w io.Writer, result *Result, path string) error {
	if _, err := fmt.Fprintf(w, "Linting articles in: %s\n", path); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("─", 60)); err != nil {
		return err
	}

	issues := make([]Issue, len(result.Issues))
	copy(issues, result.Issues)
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].FilePath != issues[j].FilePath {
			return issues[i].FilePath < issues[j].FilePath
		}
		return issues[i].Line < issues[j].Line
	})

	for _, issue := range issues {
		if err := f.formatIssue(w, issue); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, strings.Repeat("─", 60)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Results:\n  %d files scanned\n", result.FilesTotal); err != nil {
		return err
	}
	if n := result.ErrorCount(); n > 0 {
		if _, err := fmt.Fprintf(w, "  %d error%s (blocks build)\n", n, pluralize(n)); err != nil {
			return err
		}
	}
	if n := result.WarningCount(); n > 0 {
		if _, err := fmt.Fprintf(w, "  %d warning%s (should fix)\n", n, pluralize(n)); err != nil {
			return err
		}
	}

	return f.finalMessage(w, result)
}

func (f *TextFormatter) finalMessage(w io.Writer, result *Result) error {
	var msg string
	switch {
	case result.HasErrors():
		msg = "✗ Articles have errors that will block the build.\n  Run: mdpage lint --fix"
	case result.WarningCount() > 0:
		msg = "⚠ Articles have warnings. Consider fixing before publishing."
	case len(result.Issues) > 0:
		msg = "ℹ All issues are informational."
	default:
		msg = "✓ All articles pass linting."
	}
	_, err := fmt.Fprintf(w, "\n%s\n", msg)
	return err
}

func (f *TextFormatter) formatIssue(w io.Writer, issue Issue) error {
	icon := "ℹ"
	switch issue.Severity {
	case SeverityError:
		icon = "✗"
	case SeverityWarning:
		icon = "⚠"
	}

	location := issue.FilePath
	if issue.Line > 0 {
		location = fmt.Sprintf("%s:%d", issue.FilePath, issue.Line)
	}
	if _, err := fmt.Fprintf(w, "\n%s %s\n  %s [%s]: %s\n", icon, location, issue.Severity, issue.Rule, issue.Message); err != nil {
		return err
	}

	if issue.Explanation != "" {
		for line := range strings.SplitSeq(strings.TrimSpace(issue.Explanation), "\n") {
			if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
				return err
			}
		}
	}
	if issue.Fix != "" {
		if _, err := fmt.Fprintf(w, "  Fix: %s\n", issue.Fix); err != nil {
			return err
		}
	}
	return nil
}

// JSONFormatter formats results as machine-readable JSON.
type JSONFormatter struct{}

type jsonOutput struct {
	Path         string  `json:"path"`
	FilesTotal   int     `json:"files_total"`
	ErrorCount   int     `json:"error_count"`
	WarningCount int     `json:"warning_count"`
	Issues       []Issue `json:"issues"`
}

// Format encodes the result as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result, path string) error {
	out := jsonOutput{
		Path:         path,
		FilesTotal:   result.FilesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		Issues:       result.Issues,
	}
	if out.Issues == nil {
		out.Issues = []Issue{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
