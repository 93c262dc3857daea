package config

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Snapshot computes a stable hash of build-affecting normalized fields.
// It is intentionally narrower than full serialization so that edits to
// serve ports, logging, or other runtime knobs do not invalidate the
// skip_if_unchanged short-circuit. Callers should snapshot a config
// that went through Load (normalized and defaulted).
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}

	h := sha256.New()
	w := func(key, val string) {
		h.Write([]byte(key + "=" + val))
		h.Write([]byte{0})
	}

	w("site.title", c.Site.Title)
	w("site.description", c.Site.Description)
	w("site.base_url", c.Site.BaseURL)
	w("source.dir", c.Source.Dir)
	w("source.repo", c.Source.Repo)
	w("source.branch", c.Source.Branch)
	// Patterns are order-sensitive, hash them in declared order.
	w("source.include", strings.Join(c.Source.Include, ","))
	w("source.exclude", strings.Join(c.Source.Exclude, ","))
	w("output.directory", c.Output.Directory)

	return hex.EncodeToString(h.Sum(nil))
}
