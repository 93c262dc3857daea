package lint

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mdpage/internal/frontmatterops"
)

// FrontmatterUIDRule checks that every article carries a stable uid in
// its YAML frontmatter. The uid anchors external references across
// renames and must never change once set.
type FrontmatterUIDRule struct{}

const frontmatterUIDRuleName = "frontmatter-uid"

func (r *FrontmatterUIDRule) Name() string {
	return frontmatterUIDRuleName
}

func (r *FrontmatterUIDRule) AppliesTo(filePath string) bool {
	return IsDocFile(filePath)
}

func (r *FrontmatterUIDRule) Check(filePath string) ([]Issue, error) {
	// #nosec G304 -- filePath comes from the lint walk.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	fields, _, had, _, readErr := frontmatterops.Read(data)
	if readErr != nil || !had {
		// Unreadable or absent frontmatter cannot carry a uid.
		return []Issue{r.issue(filePath, "Missing uid in frontmatter",
			"The article has no (readable) YAML frontmatter, so it cannot carry a uid.")}, nil
	}

	raw, ok := fields["uid"]
	if !ok {
		return []Issue{r.issue(filePath, "Missing uid in frontmatter",
			"Articles carry a stable unique identifier so external references survive renames.")}, nil
	}

	uid, ok := raw.(string)
	if !ok {
		return []Issue{r.issue(filePath, "Invalid uid in frontmatter",
			fmt.Sprintf("uid must be a string, got %T.", raw))}, nil
	}
	if strings.TrimSpace(uid) == "" {
		return []Issue{r.issue(filePath, "Invalid uid in frontmatter", "uid is empty.")}, nil
	}
	if _, err := uuid.Parse(strings.TrimSpace(uid)); err != nil {
		return []Issue{r.issue(filePath, "Invalid uid in frontmatter",
			"uid must be a valid UUID; do not change it once correct, generate one only for new articles.")}, nil
	}

	return nil, nil
}

func (r *FrontmatterUIDRule) issue(filePath, message, explanation string) Issue {
	return Issue{
		FilePath:    filePath,
		Severity:    SeverityError,
		Rule:        r.Name(),
		Message:     message,
		Explanation: explanation,
		Fix:         "Run: mdpage lint --fix (adds missing uids)",
	}
}
