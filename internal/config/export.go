package config

import "strings"

// ExportConfig selects the archive format for `mdpage export`.
type ExportConfig struct {
	Format ArchiveFormat `yaml:"format,omitempty"`
}

// ArchiveFormat enumerates supported export archive formats.
type ArchiveFormat string

const (
	ArchiveTar   ArchiveFormat = "tar"
	ArchiveTarGz ArchiveFormat = "tar.gz"
	ArchiveTarXz ArchiveFormat = "tar.xz"
)

// NormalizeArchiveFormat canonicalizes user input (accepting common
// aliases), returning empty string for unknown values.
func NormalizeArchiveFormat(raw string) ArchiveFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ArchiveTar), "none":
		return ArchiveTar
	case string(ArchiveTarGz), "tgz", "gzip", "gz":
		return ArchiveTarGz
	case string(ArchiveTarXz), "txz", "xz":
		return ArchiveTarXz
	default:
		return ""
	}
}
