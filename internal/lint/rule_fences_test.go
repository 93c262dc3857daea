package lint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpage/internal/fence"
)

func TestFenceRule_Check_CleanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	content := "# Title\n\n```go\nfmt.Println(1)\n```\n\nProse after.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rule := &FenceRule{}
	issues, err := rule.Check(path)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestFenceRule_Check_UnterminatedFence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	content := "Intro.\n\n```js\nlet x = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rule := &FenceRule{}
	issues, err := rule.Check(path)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, fenceRuleName, issues[0].Rule)
	assert.Equal(t, 3, issues[0].Line)
	assert.Equal(t, fence.ErrUnterminatedFence.Error(), issues[0].Message)
	assert.NotEmpty(t, issues[0].Fix)
}

func TestFenceRule_Check_MalformedInfoString(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	content := "```js`extra\ncode\n```\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rule := &FenceRule{}
	issues, err := rule.Check(path)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, 1, issues[0].Line)
	assert.Equal(t, fence.ErrMalformedFence.Error(), issues[0].Message)
}

func TestFenceRule_Check_LineNumbersSpanFrontmatter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	content := "---\ntitle: T\n---\n\n```js\nlet x = 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rule := &FenceRule{}
	issues, err := rule.Check(path)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	// The fence opens on line 5 of the file, line 2 of the body.
	assert.Equal(t, 5, issues[0].Line)
}

func TestFenceRule_AppliesTo(t *testing.T) {
	rule := &FenceRule{}

	assert.True(t, rule.AppliesTo("notes/article.md"))
	assert.True(t, rule.AppliesTo("notes/ARTICLE.MARKDOWN"))
	assert.False(t, rule.AppliesTo("notes/image.png"))
	assert.False(t, rule.AppliesTo("notes/article.md.bak"))
}
