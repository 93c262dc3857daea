// Package fence splits raw markdown into an ordered block sequence by
// detecting fenced code regions.
//
// The scanner is deliberately stricter than CommonMark: a fence that is
// never closed is a hard parse error instead of silently swallowing the
// rest of the file, and a backtick fence whose info string contains a
// backtick is rejected instead of being demoted to paragraph text.
// Everything between fences is left untouched for the markdown renderer.
package fence

import (
	"errors"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/mdpage/internal/document"
)

// Sentinel reasons carried by ParseError.
var (
	// ErrUnterminatedFence is reported when a code fence is opened but the
	// document ends before a matching closing fence.
	ErrUnterminatedFence = errors.New("code fence opened but never closed")

	// ErrMalformedFence is reported when an opening backtick fence carries a
	// backtick in its info string.
	ErrMalformedFence = errors.New("opening code fence has a malformed info string")
)

// ParseError describes a fence syntax violation with its source position.
// Line is 1-based and points at the offending fence line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// maxFenceIndent is the most leading spaces a fence line may have.
// Anything deeper is an indented code block and belongs to prose.
const maxFenceIndent = 3

// openFence tracks the currently open fenced region during scanning.
type openFence struct {
	char   byte
	length int
	indent int
	lang   string
	line   int
}

// Parse splits src into an ordered, immutable block sequence.
//
// The returned error is always a *ParseError when parsing fails; no
// partial document is returned alongside an error.
func Parse(src []byte) (*document.Document, error) {
	lines := strings.Split(string(src), "\n")

	var blocks []document.Block
	var open *openFence
	var code []string

	prose := proseBuffer{}

	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSuffix(raw, "\r")

		if open == nil {
			indent, char, length, info, ok := fenceRun(line)
			if !ok {
				prose.add(line, lineNo)
				continue
			}
			if char == '`' && strings.ContainsRune(info, '`') {
				return nil, &ParseError{Line: lineNo, Err: ErrMalformedFence}
			}
			if b, flushed := prose.flush(); flushed {
				blocks = append(blocks, b)
			}
			open = &openFence{
				char:   char,
				length: length,
				indent: indent,
				lang:   firstWord(info),
				line:   lineNo,
			}
			code = code[:0]
			continue
		}

		if closesFence(line, open) {
			blocks = append(blocks, document.Code(open.lang, joinCode(code), open.line))
			open = nil
			continue
		}
		code = append(code, dedent(line, open.indent))
	}

	if open != nil {
		return nil, &ParseError{Line: open.line, Err: ErrUnterminatedFence}
	}
	if b, flushed := prose.flush(); flushed {
		blocks = append(blocks, b)
	}

	return document.New(blocks), nil
}

// fenceRun reports whether line is a fence delimiter line. On success it
// returns the leading indent, the fence character, the run length, and
// the remaining info string.
func fenceRun(line string) (indent int, char byte, length int, info string, ok bool) {
	for indent < len(line) && line[indent] == ' ' {
		indent++
	}
	if indent > maxFenceIndent || indent == len(line) {
		return 0, 0, 0, "", false
	}

	char = line[indent]
	if char != '`' && char != '~' {
		return 0, 0, 0, "", false
	}
	pos := indent
	for pos < len(line) && line[pos] == char {
		pos++
	}
	length = pos - indent
	if length < 3 {
		return 0, 0, 0, "", false
	}
	return indent, char, length, strings.TrimSpace(line[pos:]), true
}

// closesFence reports whether line terminates the open fence: a run of
// the same character at least as long as the opener, with nothing but
// whitespace after it. Shorter runs and runs with trailing text are
// content; the unterminated check at EOF catches close typos.
func closesFence(line string, open *openFence) bool {
	_, char, length, info, ok := fenceRun(line)
	if !ok {
		return false
	}
	return char == open.char && length >= open.length && info == ""
}

// dedent strips up to n leading spaces, mirroring how the opening
// fence's indentation is removed from its content lines.
func dedent(line string, n int) string {
	for i := 0; i < n; i++ {
		if len(line) == 0 || line[0] != ' ' {
			break
		}
		line = line[1:]
	}
	return line
}

// joinCode reassembles content lines into the block text. A non-empty
// region always ends with a newline; an empty fence yields "".
func joinCode(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// firstWord returns the first whitespace-delimited token of an info
// string, which by convention is the language tag.
func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// proseBuffer accumulates the lines between fences, trimming blank
// edges so empty gaps produce no block.
type proseBuffer struct {
	lines []string
	nums  []int
}

func (p *proseBuffer) add(line string, num int) {
	p.lines = append(p.lines, line)
	p.nums = append(p.nums, num)
}

func (p *proseBuffer) flush() (document.Block, bool) {
	start := 0
	end := len(p.lines)
	for start < end && strings.TrimSpace(p.lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(p.lines[end-1]) == "" {
		end--
	}
	if start == end {
		p.lines = p.lines[:0]
		p.nums = p.nums[:0]
		return document.Block{}, false
	}

	text := strings.Join(p.lines[start:end], "\n")
	line := p.nums[start]
	p.lines = p.lines[:0]
	p.nums = p.nums[:0]
	return document.Prose(text, line), true
}
