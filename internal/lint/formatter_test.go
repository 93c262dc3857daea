package lint

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	return &Result{
		FilesTotal: 2,
		Issues: []Issue{
			{
				FilePath: "docs/b.md",
				Severity: SeverityWarning,
				Rule:     frontmatterFingerprintRuleName,
				Message:  "Missing lastmod in frontmatter",
			},
			{
				FilePath:    "docs/a.md",
				Severity:    SeverityError,
				Rule:        fenceRuleName,
				Message:     "code fence opened but never closed",
				Explanation: "Close the fence before the end of the file.",
				Fix:         "Close or correct the fence at the reported line.",
				Line:        12,
			},
		},
	}
}

func TestTextFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	err := (&TextFormatter{}).Format(&buf, sampleResult(), "docs")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Linting articles in: docs")
	assert.Contains(t, out, "docs/a.md:12")
	assert.Contains(t, out, "2 files scanned")
	assert.Contains(t, out, "1 error")
	assert.Contains(t, out, "1 warning")
	assert.Contains(t, out, "mdpage lint --fix")

	// Output sorts by file path, so a.md precedes b.md.
	assert.Less(t, strings.Index(out, "docs/a.md"), strings.Index(out, "docs/b.md"))
}

func TestTextFormatter_Format_CleanResult(t *testing.T) {
	var buf bytes.Buffer
	err := (&TextFormatter{}).Format(&buf, &Result{FilesTotal: 3}, "docs")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All articles pass linting")
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	err := (&JSONFormatter{}).Format(&buf, sampleResult(), "docs")
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	assert.Equal(t, "docs", out["path"])
	assert.Equal(t, float64(2), out["files_total"])
	assert.Equal(t, float64(1), out["error_count"])
	assert.Equal(t, float64(1), out["warning_count"])

	issues, ok := out["issues"].([]any)
	require.True(t, ok)
	require.Len(t, issues, 2)

	first, ok := issues[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "WARNING", first["severity"])
	assert.Equal(t, frontmatterFingerprintRuleName, first["rule"])
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter("json"))
	assert.IsType(t, &TextFormatter{}, NewFormatter("text"))
	assert.IsType(t, &TextFormatter{}, NewFormatter(""))
}
