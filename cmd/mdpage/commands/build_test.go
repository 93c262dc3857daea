package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildCmd(t *testing.T) {
	source := t.TempDir()
	output := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.WriteFile(filepath.Join(source, "index.md"),
		[]byte("---\ntitle: Home\n---\n# Home\n\nwelcome\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(source, "guides"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "guides", "setup.md"),
		[]byte("# Setup\n\n```sh\nmake\n```\n"), 0o644))

	t.Chdir(t.TempDir())
	cmd := &BuildCmd{Source: source, Output: output}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: DefaultConfigPath}))

	for _, page := range []string{"index.html", filepath.Join("guides", "setup.html")} {
		_, err := os.Stat(filepath.Join(output, page))
		require.NoError(t, err, "expected %s in the generated site", page)
	}

	html, err := os.ReadFile(filepath.Join(output, "guides", "setup.html"))
	require.NoError(t, err)
	require.Contains(t, string(html), `class="code-block"`)
}

func TestBuildCmdParseFailureAborts(t *testing.T) {
	source := t.TempDir()
	output := filepath.Join(t.TempDir(), "public")
	require.NoError(t, os.WriteFile(filepath.Join(source, "bad.md"),
		[]byte("# Bad\n\n```go\nfunc main() {\n"), 0o644))

	t.Chdir(t.TempDir())
	cmd := &BuildCmd{Source: source, Output: output}
	err := cmd.Run(&Global{}, &CLI{Config: DefaultConfigPath})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(output, "bad.html"))
	require.True(t, os.IsNotExist(statErr), "failed build must not publish pages")
}
