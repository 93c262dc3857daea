package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeSignatureIgnoresOrder(t *testing.T) {
	a := SourceFile{RelPath: "a.md", Digest: fileDigest([]byte("alpha"))}
	b := SourceFile{RelPath: "b.md", Digest: fileDigest([]byte("beta"))}

	require.Equal(t,
		computeSignature("cfg", []SourceFile{a, b}),
		computeSignature("cfg", []SourceFile{b, a}))
}

func TestComputeSignatureTracksContent(t *testing.T) {
	before := computeSignature("cfg", []SourceFile{{RelPath: "a.md", Digest: fileDigest([]byte("one"))}})
	after := computeSignature("cfg", []SourceFile{{RelPath: "a.md", Digest: fileDigest([]byte("two"))}})
	require.NotEqual(t, before, after)
}

func TestComputeSignatureTracksConfig(t *testing.T) {
	files := []SourceFile{{RelPath: "a.md", Digest: fileDigest([]byte("one"))}}
	require.NotEqual(t,
		computeSignature("cfg-a", files),
		computeSignature("cfg-b", files))
}

func TestComputeSignatureTracksPathRenames(t *testing.T) {
	digest := fileDigest([]byte("same"))
	require.NotEqual(t,
		computeSignature("cfg", []SourceFile{{RelPath: "old.md", Digest: digest}}),
		computeSignature("cfg", []SourceFile{{RelPath: "new.md", Digest: digest}}))
}

func TestStoredSignatureRoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.Empty(t, readStoredSignature(dir))

	require.NoError(t, writeSignature(dir, "abc123"))
	require.Equal(t, "abc123", readStoredSignature(dir))

	require.Empty(t, readStoredSignature(filepath.Join(dir, "missing")))
}

func TestExistingSiteValid(t *testing.T) {
	dir := t.TempDir()
	require.False(t, existingSiteValid(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o600))
	require.True(t, existingSiteValid(dir))
}
