package site

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// signatureFile is where the build signature lands inside the output
// directory. A leading dot keeps it out of site listings.
const signatureFile = ".mdpage-signature"

// fileDigest returns the blake3 hex digest of in-memory content.
func fileDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashFile streams a file through blake3 without holding it in memory.
func hashFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the discovery walk
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// computeSignature folds per-file digests into one sha256 set hash.
// Entries are sorted by rel path so walk order cannot leak into the
// signature; the config hash is folded in so configuration edits
// invalidate the skip decision too.
func computeSignature(configHash string, files []SourceFile) string {
	entries := make([]string, 0, len(files))
	for _, f := range files {
		entries = append(entries, f.RelPath+"\x00"+f.Digest)
	}
	sort.Strings(entries)

	h := sha256.New()
	h.Write([]byte("config\x00" + configHash + "\n"))
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// readStoredSignature returns the signature of the previous build, or
// "" when none is stored.
func readStoredSignature(outputDir string) string {
	data, err := os.ReadFile(filepath.Join(outputDir, signatureFile)) // #nosec G304 -- path is the configured output dir
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// writeSignature persists the signature into the output directory.
func writeSignature(outputDir, sig string) error {
	path := filepath.Join(outputDir, signatureFile)
	if err := os.WriteFile(path, []byte(sig+"\n"), 0o600); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	return nil
}

// existingSiteValid reports whether the output directory still holds a
// rendered site worth keeping. The index page is the marker; if it is
// gone the skip optimization must not fire.
func existingSiteValid(outputDir string) bool {
	info, err := os.Stat(filepath.Join(outputDir, "index.html"))
	return err == nil && !info.IsDir()
}
