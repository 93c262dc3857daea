// Package export archives the rendered site into a tar with a
// manifest describing every file.
package export

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/mdpage/internal/config"
	"git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/version"
)

// ManifestName is the archive member listing the exported files.
const ManifestName = "manifest.json"

// ManifestFile describes one archived file.
type ManifestFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	BLAKE3 string `json:"blake3"`
}

// Manifest describes an exported site archive.
type Manifest struct {
	Generator  string         `json:"generator"`
	SiteTitle  string         `json:"site_title,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Files      []ManifestFile `json:"files"`
	TotalBytes int64          `json:"total_bytes"`
}

// Exporter archives a rendered site directory.
type Exporter struct {
	cfg *config.Config
}

// New creates an Exporter.
func New(cfg *config.Config) *Exporter {
	return &Exporter{cfg: cfg}
}

// ArchiveName returns the default archive file name for a format.
func ArchiveName(format config.ArchiveFormat, at time.Time) string {
	return "site-" + at.Format("20060102-150405") + "." + string(format)
}

// Export writes the archive and returns its manifest. The manifest is
// the first tar member, followed by the site files in path order.
func (e *Exporter) Export(ctx context.Context, siteDir, outPath string, format config.ArchiveFormat) (*Manifest, error) {
	manifest, err := buildManifest(ctx, siteDir, e.cfg.Site.Title)
	if err != nil {
		return nil, err
	}

	if err := writeArchive(ctx, siteDir, outPath, format, manifest); err != nil {
		// Do not leave a truncated archive behind.
		_ = os.Remove(outPath)
		return nil, err
	}

	slog.Info("Site exported",
		logfields.Path(outPath),
		logfields.Count(len(manifest.Files)),
		slog.Int64("bytes", manifest.TotalBytes),
		slog.String("format", string(format)))

	return manifest, nil
}

// buildManifest walks the site output and hashes every file.
func buildManifest(ctx context.Context, siteDir, title string) (*Manifest, error) {
	manifest := &Manifest{
		Generator: "mdpage/" + version.Version,
		SiteTitle: title,
		CreatedAt: time.Now().UTC(),
	}

	err := filepath.WalkDir(siteDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(siteDir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		digest, err := hashFile(p)
		if err != nil {
			return err
		}

		manifest.Files = append(manifest.Files, ManifestFile{
			Path:   filepath.ToSlash(rel),
			Size:   info.Size(),
			BLAKE3: digest,
		})
		manifest.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExport, "failed to scan site output").
			WithContext("site_dir", siteDir).
			Build()
	}
	if len(manifest.Files) == 0 {
		return nil, errors.ExportError("nothing to export").
			WithContext("site_dir", siteDir).
			Build()
	}

	sort.Slice(manifest.Files, func(i, j int) bool {
		return manifest.Files[i].Path < manifest.Files[j].Path
	})
	return manifest, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from walking the site output
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeArchive(ctx context.Context, siteDir, outPath string, format config.ArchiveFormat, manifest *Manifest) error {
	out, err := os.Create(outPath) // #nosec G304 -- destination chosen by the operator
	if err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to create archive").
			WithContext("path", outPath).
			Build()
	}

	var compressor io.WriteCloser
	sink := io.Writer(out)
	switch format {
	case config.ArchiveTarGz:
		gz, gzErr := gzip.NewWriterLevel(out, gzip.BestCompression)
		if gzErr != nil {
			_ = out.Close()
			return errors.WrapError(gzErr, errors.CategoryExport, "failed to create gzip writer").Build()
		}
		compressor = gz
		sink = gz
	case config.ArchiveTarXz:
		xzw, xzErr := xz.NewWriter(out)
		if xzErr != nil {
			_ = out.Close()
			return errors.WrapError(xzErr, errors.CategoryExport, "failed to create xz writer").Build()
		}
		compressor = xzw
		sink = xzw
	case config.ArchiveTar:
		// Uncompressed.
	default:
		_ = out.Close()
		return errors.ExportError("unsupported archive format").
			WithContext("format", string(format)).
			Build()
	}

	tw := tar.NewWriter(sink)

	if err := writeEntries(ctx, tw, siteDir, manifest); err != nil {
		_ = tw.Close()
		if compressor != nil {
			_ = compressor.Close()
		}
		_ = out.Close()
		return err
	}

	// Close in order; each flushes buffered bytes into the next.
	if err := tw.Close(); err != nil {
		_ = out.Close()
		return errors.WrapError(err, errors.CategoryExport, "failed to finalize tar").Build()
	}
	if compressor != nil {
		if err := compressor.Close(); err != nil {
			_ = out.Close()
			return errors.WrapError(err, errors.CategoryExport, "failed to finalize compression").Build()
		}
	}
	if err := out.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to close archive").Build()
	}
	return nil
}

func writeEntries(ctx context.Context, tw *tar.Writer, siteDir string, manifest *Manifest) error {
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to serialize manifest").Build()
	}
	if err := writeTarFile(tw, ManifestName, manifestData, manifest.CreatedAt); err != nil {
		return err
	}

	for _, f := range manifest.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := streamTarFile(tw, siteDir, f, manifest.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func writeTarFile(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to write tar header").
			WithContext("name", name).
			Build()
	}
	if _, err := tw.Write(data); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to write tar entry").
			WithContext("name", name).
			Build()
	}
	return nil
}

// streamTarFile copies one site file into the archive. The header size
// comes from the manifest scan; a file changing size mid-export fails
// the tar write.
func streamTarFile(tw *tar.Writer, siteDir string, f ManifestFile, modTime time.Time) error {
	src := filepath.Join(siteDir, filepath.FromSlash(f.Path))
	in, err := os.Open(src) // #nosec G304 -- path comes from walking the site output
	if err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to open site file").
			WithContext("path", f.Path).
			Build()
	}
	defer func() { _ = in.Close() }()

	header := &tar.Header{
		Name:    f.Path,
		Mode:    0o644,
		Size:    f.Size,
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to write tar header").
			WithContext("path", f.Path).
			Build()
	}
	if _, err := io.Copy(tw, in); err != nil {
		return errors.WrapError(err, errors.CategoryExport, "failed to write tar entry").
			WithContext("path", f.Path).
			Build()
	}
	return nil
}
