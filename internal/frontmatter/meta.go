package frontmatter

import "gopkg.in/yaml.v3"

// Meta is the typed view of the article fields mdpage cares about.
// Unknown fields survive untouched in the raw map; Meta is read-only
// convenience for render, site, and search.
type Meta struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	UID         string   `yaml:"uid"`
	Fingerprint string   `yaml:"fingerprint"`
	Lastmod     string   `yaml:"lastmod"`
	Tags        []string `yaml:"tags"`
	Draft       bool     `yaml:"draft"`
}

// DecodeMeta parses raw YAML frontmatter into the typed view. Empty
// input yields a zero Meta.
func DecodeMeta(fm []byte) (Meta, error) {
	var m Meta
	if len(fm) == 0 {
		return m, nil
	}
	if err := yaml.Unmarshal(fm, &m); err != nil {
		return Meta{}, err
	}
	return m, nil
}
