package integration

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpage/internal/config"
	gitclient "git.home.luguber.info/inful/mdpage/internal/git"
	"git.home.luguber.info/inful/mdpage/internal/site"
)

// SiteStructure is the golden view of a generated site: per-page facts
// plus the output file tree. Volatile detail (timestamps, digests,
// inline styling) stays out so the goldens survive cosmetic changes.
type SiteStructure struct {
	Pages     map[string]PageFacts `json:"pages"`
	Structure map[string]any       `json:"structure"`
}

// PageFacts captures the structural content of one rendered page.
type PageFacts struct {
	Title        string   `json:"title"`
	CodeBlocks   int      `json:"codeBlocks"`
	ArticleLinks []string `json:"articleLinks,omitempty"`
}

// setupTestRepo creates a temporary git repository from a fixture tree
// so builds can exercise the real clone path.
func setupTestRepo(t *testing.T, fixturePath string) string {
	t.Helper()

	tmpDir := t.TempDir()
	require.NoError(t, copyDir(fixturePath, tmpDir), "failed to copy fixture files")

	repo, err := git.PlainInit(tmpDir, false)
	require.NoError(t, err, "failed to initialize git repo")

	w, err := repo.Worktree()
	require.NoError(t, err, "failed to get worktree")

	require.NoError(t, w.AddGlob("."), "failed to add files to git")

	_, err = w.Commit("Initial fixture commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err, "failed to create initial commit")

	// Normalize the default branch to 'main' so fixture configs can
	// rely on it regardless of the host git defaults.
	headRef, err := repo.Head()
	require.NoError(t, err, "failed to get HEAD")

	if headRef.Name().Short() != "main" {
		oldRef := headRef.Name()
		err = w.Checkout(&git.CheckoutOptions{
			Branch: "refs/heads/main",
			Create: true,
		})
		require.NoError(t, err, "failed to create main branch")
		_ = repo.Storer.RemoveReference(oldRef)
	}

	return tmpDir
}

// copyDir recursively copies a fixture tree, skipping any .git state.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if strings.Contains(relPath, ".git") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		targetPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(targetPath, info.Mode())
		}

		return copyFile(path, targetPath)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	// #nosec G304 -- test utility with paths from test setup, not user input
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- test utility with paths from test setup, not user input
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}

// loadGoldenConfig loads a fixture configuration.
func loadGoldenConfig(t *testing.T, configPath string) *config.Config {
	t.Helper()

	cfg, err := config.Load(configPath)
	require.NoError(t, err, "failed to load fixture config")

	return cfg
}

var (
	titleRe = regexp.MustCompile(`<title>(.*?)</title>`)
	hrefRe  = regexp.MustCompile(`href="([^"]+)"`)
)

// extractPageFacts reduces rendered HTML to its golden facts.
func extractPageFacts(html string) PageFacts {
	facts := PageFacts{
		CodeBlocks: strings.Count(html, `<div class="code-block"`),
	}

	if m := titleRe.FindStringSubmatch(html); m != nil {
		facts.Title = m[1]
	}

	for _, m := range hrefRe.FindAllStringSubmatch(html, -1) {
		if strings.HasSuffix(m[1], ".html") {
			facts.ArticleLinks = append(facts.ArticleLinks, m[1])
		}
	}

	return facts
}

// verifySiteStructure compares the generated site against a golden file.
func verifySiteStructure(t *testing.T, outputDir, goldenPath string, updateGolden bool) {
	t.Helper()

	actual := &SiteStructure{
		Pages:     make(map[string]PageFacts),
		Structure: buildStructureTree(outputDir),
	}

	err := filepath.Walk(outputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}

		relPath, relErr := filepath.Rel(outputDir, path)
		if relErr != nil {
			return relErr
		}

		// #nosec G304 -- test utility reading from test output directory
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}

		actual.Pages[filepath.ToSlash(relPath)] = extractPageFacts(string(data))
		return nil
	})
	require.NoError(t, err, "failed to walk output directory")

	if updateGolden {
		data, marshalErr := json.MarshalIndent(actual, "", "  ")
		require.NoError(t, marshalErr, "failed to marshal site structure")

		require.NoError(t, os.MkdirAll(filepath.Dir(goldenPath), 0o750))
		require.NoError(t, os.WriteFile(goldenPath, append(data, '\n'), 0o600))

		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	goldenData, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)

	var expected SiteStructure
	require.NoError(t, json.Unmarshal(goldenData, &expected), "failed to parse golden site structure")

	actualJSON, err := json.MarshalIndent(actual, "", "  ")
	require.NoError(t, err)
	expectedJSON, err := json.MarshalIndent(expected, "", "  ")
	require.NoError(t, err)

	require.JSONEq(t, string(expectedJSON), string(actualJSON), "site structure mismatch")
}

// buildStructureTree creates a nested map representing the output tree.
func buildStructureTree(rootDir string) map[string]any {
	tree := make(map[string]any)

	_ = filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == rootDir {
			return err
		}

		relPath, _ := filepath.Rel(rootDir, path)
		parts := strings.Split(relPath, string(filepath.Separator))

		addPathToTree(tree, parts, info.IsDir())
		return nil
	})

	return tree
}

// addPathToTree adds a file or directory path to the structure tree.
func addPathToTree(tree map[string]any, parts []string, isDir bool) {
	current := tree
	for i, part := range parts {
		if i == len(parts)-1 {
			addFinalPart(current, part, isDir)
		} else {
			current = ensureIntermediateDir(current, part)
		}
	}
}

func addFinalPart(current map[string]any, part string, isDir bool) {
	if _, exists := current[part]; !exists {
		current[part] = map[string]any{}
	}
}

func ensureIntermediateDir(current map[string]any, part string) map[string]any {
	if _, exists := current[part]; !exists {
		current[part] = make(map[string]any)
	}
	return current[part].(map[string]any)
}

// runRepoGoldenTest clones a fixture repository the way `mdpage build
// --repo` does, builds the site, and verifies the golden structure.
func runRepoGoldenTest(t *testing.T, fixturePath, configPath, goldenPath string, updateGolden bool) {
	t.Helper()

	repoPath := setupTestRepo(t, fixturePath)

	cfg := loadGoldenConfig(t, configPath)
	cfg.Source.Repo = repoPath
	outputDir := t.TempDir()
	cfg.Output.Directory = outputDir

	res, err := gitclient.NewClient(t.TempDir()).Clone(t.Context(), cfg.Source.Repo, cfg.Source.Branch)
	require.NoError(t, err, "failed to clone fixture repo")
	require.NotEmpty(t, res.Commit)

	report, err := site.NewBuilder(cfg).Build(t.Context(), res.Path)
	require.NoError(t, err, "site build failed")
	require.Equal(t, site.OutcomeSuccess, report.Outcome, "build should succeed")

	verifySiteStructure(t, outputDir, goldenPath, updateGolden)
}

// runDirGoldenTest builds straight from a fixture directory, the
// `mdpage build --source` path.
func runDirGoldenTest(t *testing.T, fixturePath, configPath, goldenPath string, updateGolden bool) {
	t.Helper()

	cfg := loadGoldenConfig(t, configPath)
	outputDir := t.TempDir()
	cfg.Output.Directory = outputDir

	report, err := site.NewBuilder(cfg).Build(t.Context(), fixturePath)
	require.NoError(t, err, "site build failed")
	require.Equal(t, site.OutcomeSuccess, report.Outcome, "build should succeed")

	verifySiteStructure(t, outputDir, goldenPath, updateGolden)
}
