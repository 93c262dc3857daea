// Package lint checks article files for frontmatter hygiene and fence
// well-formedness, and can fix what is mechanically fixable.
package lint

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON emits the severity name instead of its numeric value.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Issue represents a single linting problem found in a file.
type Issue struct {
	FilePath    string   `json:"file"`
	Severity    Severity `json:"severity"`
	Rule        string   `json:"rule"`
	Message     string   `json:"message"`
	Explanation string   `json:"explanation,omitempty"`
	Fix         string   `json:"fix,omitempty"`
	Line        int      `json:"line,omitempty"`
}

// Result contains all issues found during linting.
type Result struct {
	Issues     []Issue `json:"issues"`
	FilesTotal int     `json:"files_total"`
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Rule defines a linting rule that can be applied to files.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// AppliesTo returns true if this rule should run for the given file.
	AppliesTo(filePath string) bool

	// Check validates a file and returns any issues found.
	Check(filePath string) ([]Issue, error)
}

// Config contains configuration for the linter.
type Config struct {
	// Quiet suppresses info and warnings, only showing errors.
	Quiet bool

	// Format selects output format (text, json).
	Format string
}

// IsDocFile returns true for article files mdpage renders.
func IsDocFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}
