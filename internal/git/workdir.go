package git

import (
	"os"
	"path/filepath"
	"strings"
)

// repoDirName derives a stable directory name from a repository URL:
// the last path segment without its .git suffix. Falls back to "repo"
// for URLs with no usable segment.
func repoDirName(url string) string {
	trimmed := strings.TrimRight(strings.TrimSuffix(url, ".git"), "/")

	seg := trimmed
	if i := strings.LastIndexAny(trimmed, "/:"); i >= 0 {
		seg = trimmed[i+1:]
	}

	var b strings.Builder
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if name := strings.Trim(b.String(), "-."); name != "" {
		return name
	}
	return "repo"
}

// Head returns the current HEAD commit hash of a local clone, reading
// .git directly so it works without opening the repository.
func Head(repoPath string) (string, error) {
	headPath := filepath.Join(repoPath, ".git", "HEAD")
	data, err := os.ReadFile(headPath) // #nosec G304 -- path is a workspace clone
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(string(data))
	if ref, ok := strings.CutPrefix(line, "ref:"); ok {
		refPath := filepath.Join(repoPath, ".git", filepath.FromSlash(strings.TrimSpace(ref)))
		if refData, refErr := os.ReadFile(refPath); refErr == nil { // #nosec G304 -- resolved under .git
			return strings.TrimSpace(string(refData)), nil
		}
	}
	return line, nil
}
