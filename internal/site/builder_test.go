package site

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/fence"
)

func testConfig(t *testing.T, source, output string) *config.Config {
	t.Helper()
	return &config.Config{
		Site:   config.SiteConfig{Title: "Test Site", Description: "Articles under test"},
		Source: config.SourceConfig{Dir: source},
		Output: config.OutputConfig{Directory: output},
		Build:  config.BuildConfig{Concurrency: 2, SkipIfUnchanged: true},
	}
}

func readOutput(t *testing.T, output, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(output, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestBuildRendersTree(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{
		"intro.md": "# Introduction\n\nWelcome.\n",
		"guides/setup.md": "---\ntitle: Setup Guide\ndescription: Install everything\n---\n" +
			"\n# Setup\n\n```sh\nmake install\n```\n",
		"guides/logo.png": "png-bytes",
	})

	builder := NewBuilder(testConfig(t, source, output))
	report, err := builder.Build(context.Background(), source)
	require.NoError(t, err)

	require.Equal(t, OutcomeSuccess, report.Outcome)
	require.Equal(t, 2, report.Articles)
	require.Equal(t, 1, report.Assets)
	require.NotEmpty(t, report.Signature)
	for _, stage := range []string{"discover", "parse", "render", "index", "write"} {
		require.Contains(t, report.StageDurations, stage)
	}

	intro := readOutput(t, output, "intro.html")
	require.Contains(t, intro, "<title>Introduction</title>")
	require.Contains(t, intro, "Welcome.")

	setup := readOutput(t, output, "guides/setup.html")
	require.Contains(t, setup, "<title>Setup Guide</title>")
	require.Contains(t, setup, `class="code-block" data-lang="sh"`)
	require.Contains(t, setup, "make install")

	index := readOutput(t, output, "index.html")
	require.Contains(t, index, "<title>Test Site</title>")
	require.Contains(t, index, "<h2>Guides</h2>")
	require.Contains(t, index, `href="guides/setup.html"`)
	require.Contains(t, index, "Setup Guide")
	require.Contains(t, index, "Install everything")
	require.Contains(t, index, `href="intro.html"`)

	require.Equal(t, "png-bytes", readOutput(t, output, "guides/logo.png"))
	require.Equal(t, report.Signature, readStoredSignature(output))
}

func TestBuildSkipsWhenUnchanged(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{"intro.md": "# Intro\n"})

	builder := NewBuilder(testConfig(t, source, output))

	first, err := builder.Build(context.Background(), source)
	require.NoError(t, err)
	require.Empty(t, first.SkipReason)

	second, err := builder.Build(context.Background(), source)
	require.NoError(t, err)
	require.Equal(t, "no_changes", second.SkipReason)
	require.Equal(t, OutcomeSuccess, second.Outcome)
	require.Contains(t, second.StageDurations, "discover")
	require.NotContains(t, second.StageDurations, "render")
}

func TestBuildRunsAgainAfterContentChange(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{"intro.md": "# Intro\n"})

	builder := NewBuilder(testConfig(t, source, output))
	_, err := builder.Build(context.Background(), source)
	require.NoError(t, err)

	writeTree(t, source, map[string]string{"intro.md": "# Intro\n\nEdited.\n"})

	report, err := builder.Build(context.Background(), source)
	require.NoError(t, err)
	require.Empty(t, report.SkipReason)
	require.Contains(t, readOutput(t, output, "intro.html"), "Edited.")
}

func TestBuildRebuildsWhenOutputMissing(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{"intro.md": "# Intro\n"})

	builder := NewBuilder(testConfig(t, source, output))
	_, err := builder.Build(context.Background(), source)
	require.NoError(t, err)

	// Same signature but the rendered site is gone.
	require.NoError(t, os.Remove(filepath.Join(output, "index.html")))

	report, err := builder.Build(context.Background(), source)
	require.NoError(t, err)
	require.Empty(t, report.SkipReason)
	require.FileExists(t, filepath.Join(output, "index.html"))
}

func TestBuildSkipsDrafts(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{
		"published.md": "# Published\n",
		"wip.md":       "---\ndraft: true\n---\n\n# Work In Progress\n",
	})

	builder := NewBuilder(testConfig(t, source, output))
	report, err := builder.Build(context.Background(), source)
	require.NoError(t, err)

	require.Equal(t, 1, report.Articles)
	require.Equal(t, 1, report.SkippedDrafts)
	require.NoFileExists(t, filepath.Join(output, "wip.html"))
	require.NotContains(t, readOutput(t, output, "index.html"), "Work In Progress")
}

func TestBuildFailsOnUnterminatedFence(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{
		"good.md":   "# Good\n",
		"broken.md": "# Broken\n\n```js\nlet x = 1\n",
	})

	builder := NewBuilder(testConfig(t, source, output))
	report, err := builder.Build(context.Background(), source)
	require.Error(t, err)
	require.ErrorIs(t, err, fence.ErrUnterminatedFence)

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageParse, se.Stage)
	require.Equal(t, StageErrorFatal, se.Kind)

	require.Equal(t, OutcomeFailed, report.Outcome)
	require.NotEmpty(t, report.Errors)
	// No partial output: the write stage never ran.
	require.NoFileExists(t, filepath.Join(output, "good.html"))
}

func TestBuildRootIndexArticleWins(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{
		"index.md": "# Welcome\n\nHand-written landing page.\n",
		"other.md": "# Other\n",
	})

	builder := NewBuilder(testConfig(t, source, output))
	_, err := builder.Build(context.Background(), source)
	require.NoError(t, err)

	index := readOutput(t, output, "index.html")
	require.Contains(t, index, "Hand-written landing page.")
	require.Contains(t, index, `class="article"`)
	require.NotContains(t, index, `class="index"`)
}

func TestBuildCanceledContext(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{"intro.md": "# Intro\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewBuilder(testConfig(t, source, output))
	report, err := builder.Build(ctx, source)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, OutcomeCanceled, report.Outcome)
}

func TestBuildCleanOutput(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{"intro.md": "# Intro\n"})
	require.NoError(t, os.WriteFile(filepath.Join(output, "stale.html"), []byte("old"), 0o600))

	cfg := testConfig(t, source, output)
	cfg.Output.Clean = true

	_, err := NewBuilder(cfg).Build(context.Background(), source)
	require.NoError(t, err)

	require.NoFileExists(t, filepath.Join(output, "stale.html"))
	require.FileExists(t, filepath.Join(output, "intro.html"))
}

func TestBuildReportsMissingSource(t *testing.T) {
	output := t.TempDir()
	missing := filepath.Join(t.TempDir(), "nope")

	builder := NewBuilder(testConfig(t, missing, output))
	report, err := builder.Build(context.Background(), missing)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageDiscover, se.Stage)
	require.Equal(t, OutcomeFailed, report.Outcome)
}

func TestLoadParsesWithoutWriting(t *testing.T) {
	source := t.TempDir()
	output := t.TempDir()
	writeTree(t, source, map[string]string{
		"intro.md":        "# Introduction\n\nWelcome.\n",
		"guides/setup.md": "---\ntitle: Setup Guide\n---\n\n# Setup\n",
		"wip.md":          "---\ndraft: true\n---\n\n# Work In Progress\n",
	})

	builder := NewBuilder(testConfig(t, source, output))
	articles, err := builder.Load(context.Background(), source)
	require.NoError(t, err)

	require.Len(t, articles, 2)
	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	require.ElementsMatch(t, []string{"Introduction", "Setup Guide"}, titles)
	require.NoFileExists(t, filepath.Join(output, "intro.html"))
	require.NoFileExists(t, filepath.Join(output, "index.html"))
}
