// Package frontmatter splits, parses, and reassembles the YAML header
// block that mdpage articles may open with.
//
// Split/Join capture just enough formatting (newline flavor) to rewrite
// a file without churning its body bytes; YAML content formatting is
// not preserved, serialization is deterministic instead.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// delimiter is the frontmatter boundary marker at line start.
const delimiter = "---"

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Style captures formatting details needed for stable rewriting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// DetectStyle inspects content for its newline flavor and trailing
// newline presence.
func DetectStyle(content []byte) Style {
	newline := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		newline = "\r\n"
	}
	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}

// Split separates YAML frontmatter (`---` delimited) from the markdown
// body.
//
// If the document does not start with a frontmatter delimiter, had is
// false and body is the full input. A start delimiter without a closing
// one is ErrMissingClosingDelimiter.
func Split(content []byte) (fm []byte, body []byte, had bool, style Style, err error) {
	style = DetectStyle(content)
	nl := style.Newline

	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}
	rest := content[len(open):]

	// Empty header: the closing delimiter immediately follows.
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, style, nil
	}

	closeSeq := []byte(nl + delimiter + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	fmEnd := idx + len(nl)
	return rest[:fmEnd], rest[idx+len(closeSeq):], true, style, nil
}

// Join reassembles a document from raw frontmatter and body.
//
// If had is false, Join returns body as-is.
func Join(fm []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	boundary := []byte(delimiter + nl)

	out := make([]byte, 0, 2*len(boundary)+len(fm)+len(body))
	out = append(out, boundary...)
	out = append(out, fm...)
	out = append(out, boundary...)
	out = append(out, body...)
	return out
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(fm []byte) (map[string]any, error) {
	if len(fm) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
