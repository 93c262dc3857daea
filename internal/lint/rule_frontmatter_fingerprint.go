package lint

import (
	"fmt"
	"os"
	"strings"

	"git.home.luguber.info/inful/mdpage/internal/frontmatterops"
)

// FrontmatterFingerprintRule checks that the frontmatter fingerprint
// matches the article's current content. A stale fingerprint means the
// article was edited without restamping, which breaks change detection
// and lastmod stamping.
type FrontmatterFingerprintRule struct{}

const frontmatterFingerprintRuleName = "frontmatter-fingerprint"

func (r *FrontmatterFingerprintRule) Name() string {
	return frontmatterFingerprintRuleName
}

func (r *FrontmatterFingerprintRule) AppliesTo(filePath string) bool {
	return IsDocFile(filePath)
}

func (r *FrontmatterFingerprintRule) Check(filePath string) ([]Issue, error) {
	// #nosec G304 -- filePath comes from the lint walk.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	fields, body, had, _, readErr := frontmatterops.Read(data)
	if readErr != nil || !had {
		return []Issue{r.issue(SeverityError, filePath, "Missing fingerprint in frontmatter",
			"The article has no (readable) YAML frontmatter, so it cannot carry a fingerprint.")}, nil
	}

	want, computeErr := frontmatterops.ComputeFingerprint(fields, body)
	if computeErr != nil {
		return nil, fmt.Errorf("computing fingerprint for %s: %w", filePath, computeErr)
	}

	raw, ok := fields["fingerprint"]
	if !ok {
		return []Issue{r.issue(SeverityError, filePath, "Missing fingerprint in frontmatter",
			"Fingerprints let builds skip unchanged articles and drive lastmod stamping.")}, nil
	}

	got, ok := raw.(string)
	if !ok {
		return []Issue{r.issue(SeverityError, filePath, "Invalid fingerprint in frontmatter",
			fmt.Sprintf("fingerprint must be a string, got %T.", raw))}, nil
	}
	if strings.TrimSpace(got) == "" {
		return []Issue{r.issue(SeverityError, filePath, "Invalid fingerprint in frontmatter",
			"fingerprint is empty.")}, nil
	}

	var issues []Issue
	if strings.TrimSpace(got) != want {
		issues = append(issues, r.issue(SeverityError, filePath, "Stale fingerprint in frontmatter",
			"The article content changed since the fingerprint was stamped."))
	}
	if _, hasLastmod := fields["lastmod"]; !hasLastmod {
		issues = append(issues, r.issue(SeverityWarning, filePath, "Missing lastmod in frontmatter",
			"Fingerprinted articles should carry a lastmod date; the fixer stamps it on the next content change."))
	}
	return issues, nil
}

func (r *FrontmatterFingerprintRule) issue(sev Severity, filePath, message, explanation string) Issue {
	return Issue{
		FilePath:    filePath,
		Severity:    sev,
		Rule:        r.Name(),
		Message:     message,
		Explanation: explanation,
		Fix:         "Run: mdpage lint --fix (restamps fingerprints and lastmod)",
	}
}
