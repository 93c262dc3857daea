package frontmatterops

import (
	"errors"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/mdpage/internal/frontmatter"
)

const lastmodField = "lastmod"

// hashExcluded reports whether a frontmatter key stays out of the
// content fingerprint: the fingerprint itself plus the fields mdpage
// derives from it.
func hashExcluded(key string) bool {
	switch key {
	case mdfp.FingerprintField, lastmodField, uidField:
		return true
	}
	return false
}

// ComputeFingerprint hashes the canonical form of a document.
//
// Canonical form: excluded fields removed, remaining fields serialized
// as LF-newline YAML with a single trailing newline trimmed, hashed
// together with the body.
func ComputeFingerprint(fields map[string]any, body []byte) (string, error) {
	if fields == nil {
		return "", errors.New("fields map is nil")
	}

	hashable := make(map[string]any, len(fields))
	for k, v := range fields {
		if hashExcluded(k) {
			continue
		}
		hashable[k] = v
	}

	header := ""
	if len(hashable) > 0 {
		raw, err := frontmatter.SerializeYAML(hashable, frontmatter.Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		header = strings.TrimSuffix(string(raw), "\n")
	}

	return mdfp.CalculateFingerprintFromParts(header, string(body)), nil
}

// UpsertFingerprintAndMaybeLastmod recomputes the fingerprint and
// stores it in fields.
//
// When the fingerprint value actually changed, lastmod is stamped with
// the provided time as a UTC YYYY-MM-DD date.
func UpsertFingerprintAndMaybeLastmod(fields map[string]any, body []byte, now time.Time) (fingerprint string, changed bool, err error) {
	if fields == nil {
		return "", false, errors.New("fields map is nil")
	}

	previous, _ := fields[mdfp.FingerprintField].(string)

	fingerprint, err = ComputeFingerprint(fields, body)
	if err != nil {
		return "", false, err
	}

	if previous != fingerprint {
		fields[mdfp.FingerprintField] = fingerprint
		changed = true
	}

	if fingerprint != "" && strings.TrimSpace(previous) != strings.TrimSpace(fingerprint) {
		fields[lastmodField] = now.UTC().Format(time.DateOnly)
		changed = true
	}

	return fingerprint, changed, nil
}
