package site

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdpage/internal/frontmatter"
)

func TestOutputPath(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"intro.md", "intro.html"},
		{"guides/setup.markdown", "guides/setup.html"},
		{"a/b/c.mkd", "a/b/c.html"},
		{"index.md", "index.html"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, outputPath(tt.rel), tt.rel)
	}
}

func TestSectionOf(t *testing.T) {
	require.Equal(t, "", sectionOf("intro.md"))
	require.Equal(t, "guides", sectionOf("guides/setup.md"))
	require.Equal(t, "guides", sectionOf("guides/deep/advanced.md"))
}

func TestResolveTitle(t *testing.T) {
	meta := frontmatter.Meta{Title: "From Frontmatter"}
	require.Equal(t, "From Frontmatter", resolveTitle(meta, "From Heading", "x.md"))

	require.Equal(t, "From Heading", resolveTitle(frontmatter.Meta{}, "From Heading", "x.md"))

	require.Equal(t, "getting started", resolveTitle(frontmatter.Meta{}, "", "guides/getting-started.md"))
	require.Equal(t, "release notes", resolveTitle(frontmatter.Meta{}, "", "release_notes.md"))
	require.Equal(t, "Untitled", resolveTitle(frontmatter.Meta{}, "", "-.md"))
}

func TestSectionDisplayName(t *testing.T) {
	require.Equal(t, "Getting Started", sectionDisplayName("getting-started"))
	require.Equal(t, "Api Reference", sectionDisplayName("api_reference"))
	require.Equal(t, "Guides", sectionDisplayName("guides"))
}
