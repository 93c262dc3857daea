package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Demo\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Demo\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	input := []byte("---\ntitle: Demo\n# Title\n")

	_, _, had, _, err := Split(input)
	require.Error(t, err)
	require.False(t, had)
	require.True(t, errors.Is(err, ErrMissingClosingDelimiter))
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\r\ntitle: Demo\r\n---\r\n# Title\r\n")

	fm, body, had, style, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "\r\n", style.Newline)
	require.Equal(t, []byte("title: Demo\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock_SplitsAsHadWithEmptyFrontmatter(t *testing.T) {
	input := []byte("---\n---\n# Title\n")

	fm, body, had, _, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestJoin_RoundTrip_ReconstructsOriginalBytes(t *testing.T) {
	cases := [][]byte{
		[]byte("# Title\n\nHello\n"),
		[]byte("---\ntitle: Demo\n---\n# Title\n"),
		[]byte("---\n---\n# Title\n"),
		[]byte("---\r\ntitle: Demo\r\n---\r\n# Title\r\n"),
	}

	for _, input := range cases {
		fm, body, had, style, err := Split(input)
		require.NoError(t, err)

		out := Join(fm, body, had, style)
		require.Equal(t, input, out)
	}
}

func TestParseYAML(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		fields, err := ParseYAML(nil)
		require.NoError(t, err)
		require.NotNil(t, fields)
		require.Empty(t, fields)
	})

	t.Run("fields", func(t *testing.T) {
		fields, err := ParseYAML([]byte("title: Demo\ntags:\n  - js\n  - basics\n"))
		require.NoError(t, err)
		require.Equal(t, "Demo", fields["title"])
		require.Equal(t, []any{"js", "basics"}, fields["tags"])
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseYAML([]byte("key: [unclosed"))
		require.Error(t, err)
	})
}

func TestDecodeMeta(t *testing.T) {
	raw := []byte("title: The this keyword\ndescription: Call-site binding\nuid: abc-123\ntags:\n  - js\ndraft: true\n")

	m, err := DecodeMeta(raw)
	require.NoError(t, err)
	require.Equal(t, "The this keyword", m.Title)
	require.Equal(t, "Call-site binding", m.Description)
	require.Equal(t, "abc-123", m.UID)
	require.Equal(t, []string{"js"}, m.Tags)
	require.True(t, m.Draft)

	empty, err := DecodeMeta(nil)
	require.NoError(t, err)
	require.Equal(t, Meta{}, empty)
}

func TestDetectStyle(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		newline  string
		trailing bool
	}{
		{"lf", "a\nb\n", "\n", true},
		{"crlf", "a\r\nb\r\n", "\r\n", true},
		{"no trailing newline", "a\nb", "\n", false},
		{"empty", "", "\n", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			style := DetectStyle([]byte(tc.input))
			require.Equal(t, tc.newline, style.Newline)
			require.Equal(t, tc.trailing, style.HasTrailingNewline)
		})
	}
}
