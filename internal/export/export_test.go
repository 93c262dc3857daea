package export

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/mdpage/internal/config"
)

func testExporter() *Exporter {
	return New(&config.Config{
		Site: config.SiteConfig{Title: "Test Site"},
	})
}

func writeSiteTree(t *testing.T) (string, map[string][]byte) {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"index.html":        []byte("<html><body>Home</body></html>"),
		"guide/setup.html":  []byte("<html><body>Setup</body></html>"),
		"assets/styles.css": []byte("body { margin: 0; }"),
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, content, 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
	return dir, files
}

// readArchive returns the tar entries of an archive in order.
func readArchive(t *testing.T, path string, format config.ArchiveFormat) map[string][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer f.Close()

	var src io.Reader = f
	switch format {
	case config.ArchiveTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			t.Fatalf("failed to open gzip stream: %v", err)
		}
		defer gz.Close()
		src = gz
	case config.ArchiveTarXz:
		xzr, err := xz.NewReader(f)
		if err != nil {
			t.Fatalf("failed to open xz stream: %v", err)
		}
		src = xzr
	case config.ArchiveTar:
	}

	entries := make(map[string][]byte)
	var order []string
	tr := tar.NewReader(src)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read tar entry: %v", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("failed to read %s: %v", header.Name, err)
		}
		entries[header.Name] = data
		order = append(order, header.Name)
	}

	if len(order) == 0 {
		t.Fatal("archive should not be empty")
	}
	if order[0] != ManifestName {
		t.Errorf("first entry = %q, want %q", order[0], ManifestName)
	}
	return entries
}

func TestExportRoundTrip(t *testing.T) {
	formats := []config.ArchiveFormat{
		config.ArchiveTar,
		config.ArchiveTarGz,
		config.ArchiveTarXz,
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			siteDir, files := writeSiteTree(t)
			outPath := filepath.Join(t.TempDir(), ArchiveName(format, time.Now()))

			manifest, err := testExporter().Export(t.Context(), siteDir, outPath, format)
			if err != nil {
				t.Fatalf("failed to export: %v", err)
			}

			if len(manifest.Files) != len(files) {
				t.Fatalf("manifest has %d files, want %d", len(manifest.Files), len(files))
			}
			if manifest.SiteTitle != "Test Site" {
				t.Errorf("SiteTitle = %q, want %q", manifest.SiteTitle, "Test Site")
			}

			entries := readArchive(t, outPath, format)
			for rel, content := range files {
				got, ok := entries[rel]
				if !ok {
					t.Errorf("archive missing %s", rel)
					continue
				}
				if !bytes.Equal(got, content) {
					t.Errorf("content mismatch for %s", rel)
				}
			}
		})
	}
}

func TestExportManifestHashes(t *testing.T) {
	siteDir, files := writeSiteTree(t)
	outPath := filepath.Join(t.TempDir(), "site.tar")

	manifest, err := testExporter().Export(t.Context(), siteDir, outPath, config.ArchiveTar)
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	var total int64
	for _, f := range manifest.Files {
		content, ok := files[f.Path]
		if !ok {
			t.Errorf("unexpected manifest entry %s", f.Path)
			continue
		}
		sum := blake3.Sum256(content)
		if want := hex.EncodeToString(sum[:]); f.BLAKE3 != want {
			t.Errorf("hash mismatch for %s: got %s, want %s", f.Path, f.BLAKE3, want)
		}
		if f.Size != int64(len(content)) {
			t.Errorf("size mismatch for %s: got %d, want %d", f.Path, f.Size, len(content))
		}
		total += f.Size
	}
	if manifest.TotalBytes != total {
		t.Errorf("TotalBytes = %d, want %d", manifest.TotalBytes, total)
	}
}

func TestExportManifestEntryParses(t *testing.T) {
	siteDir, _ := writeSiteTree(t)
	outPath := filepath.Join(t.TempDir(), "site.tar.gz")

	exported, err := testExporter().Export(t.Context(), siteDir, outPath, config.ArchiveTarGz)
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	entries := readArchive(t, outPath, config.ArchiveTarGz)
	var stored Manifest
	if err := json.Unmarshal(entries[ManifestName], &stored); err != nil {
		t.Fatalf("failed to parse archived manifest: %v", err)
	}

	if stored.Generator != exported.Generator {
		t.Errorf("Generator = %q, want %q", stored.Generator, exported.Generator)
	}
	if len(stored.Files) != len(exported.Files) {
		t.Errorf("stored manifest has %d files, want %d", len(stored.Files), len(exported.Files))
	}
	for i, f := range stored.Files {
		if f != exported.Files[i] {
			t.Errorf("file %d mismatch: got %+v, want %+v", i, f, exported.Files[i])
		}
	}
}

func TestExportSortsFiles(t *testing.T) {
	siteDir, _ := writeSiteTree(t)
	outPath := filepath.Join(t.TempDir(), "site.tar")

	manifest, err := testExporter().Export(t.Context(), siteDir, outPath, config.ArchiveTar)
	if err != nil {
		t.Fatalf("failed to export: %v", err)
	}

	for i := 1; i < len(manifest.Files); i++ {
		if manifest.Files[i-1].Path >= manifest.Files[i].Path {
			t.Errorf("files out of order: %s before %s", manifest.Files[i-1].Path, manifest.Files[i].Path)
		}
	}
}

func TestExportEmptySite(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "site.tar")

	_, err := testExporter().Export(t.Context(), t.TempDir(), outPath, config.ArchiveTar)
	if err == nil {
		t.Fatal("expected error for empty site directory")
	}
	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Error("no archive should be written for an empty site")
	}
}

func TestExportMissingSiteDir(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "site.tar")

	_, err := testExporter().Export(t.Context(), filepath.Join(t.TempDir(), "absent"), outPath, config.ArchiveTar)
	if err == nil {
		t.Fatal("expected error for missing site directory")
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	siteDir, _ := writeSiteTree(t)
	outPath := filepath.Join(t.TempDir(), "site.zip")

	_, err := testExporter().Export(t.Context(), siteDir, outPath, config.ArchiveFormat("zip"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Error("no archive should remain after a failed export")
	}
}

func TestExportCanceledContext(t *testing.T) {
	siteDir, _ := writeSiteTree(t)
	outPath := filepath.Join(t.TempDir(), "site.tar")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testExporter().Export(ctx, siteDir, outPath, config.ArchiveTar)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Error("no archive should remain after a canceled export")
	}
}

func TestArchiveName(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		format config.ArchiveFormat
		want   string
	}{
		{config.ArchiveTar, "site-20250314-093000.tar"},
		{config.ArchiveTarGz, "site-20250314-093000.tar.gz"},
		{config.ArchiveTarXz, "site-20250314-093000.tar.xz"},
	}
	for _, tt := range tests {
		if got := ArchiveName(tt.format, at); got != tt.want {
			t.Errorf("ArchiveName(%s) = %q, want %q", tt.format, got, tt.want)
		}
	}
}
