// Package frontmatterops layers document-level operations on top of the
// frontmatter primitives: read/write cycles, content fingerprinting, and
// the ensure-style mutations the lint fixer applies.
package frontmatterops

import "git.home.luguber.info/inful/mdpage/internal/frontmatter"

// Read splits a markdown document into parsed frontmatter fields and body.
//
// Documents without a leading delimiter return had=false and the full
// input as body. A present-but-empty header yields an empty fields map.
func Read(content []byte) (fields map[string]any, body []byte, had bool, style frontmatter.Style, err error) {
	raw, body, had, style, err := frontmatter.Split(content)
	if err != nil {
		return nil, nil, false, style, err
	}

	fields, err = frontmatter.ParseYAML(raw)
	if err != nil {
		return nil, nil, had, style, err
	}
	return fields, body, had, style, nil
}

// ReadMeta is the read-only variant for consumers that want the typed
// field view and the body, nothing else.
func ReadMeta(content []byte) (frontmatter.Meta, []byte, error) {
	raw, body, _, _, err := frontmatter.Split(content)
	if err != nil {
		return frontmatter.Meta{}, nil, err
	}

	meta, err := frontmatter.DecodeMeta(raw)
	if err != nil {
		return frontmatter.Meta{}, nil, err
	}
	return meta, body, nil
}

// Write serializes fields back into a frontmatter header and joins it
// with body, preserving the captured newline style.
//
// When had is false the body passes through untouched, even if fields
// is non-empty.
func Write(fields map[string]any, body []byte, had bool, style frontmatter.Style) ([]byte, error) {
	if !had {
		return body, nil
	}

	raw, err := frontmatter.SerializeYAML(fields, style)
	if err != nil {
		return nil, err
	}
	return frontmatter.Join(raw, body, true, style), nil
}
