// Package document defines the immutable block model for parsed articles.
//
// A Document is an ordered sequence of Blocks. Ordering is the only
// structural invariant; once constructed a Document cannot be mutated,
// so it is safe to share across render and analysis code.
package document

// Kind discriminates block variants.
type Kind string

const (
	// KindProse marks a contiguous run of markdown prose.
	KindProse Kind = "prose"
	// KindCode marks the contents of one fenced region.
	KindCode Kind = "code"
)

// Block is a contiguous unit of either prose or code within a document.
type Block struct {
	Kind Kind
	// Text holds markdown prose for KindProse, raw code for KindCode.
	Text string
	// Lang is the fence info-string language hint. Empty for prose and
	// for code fences without a language tag.
	Lang string
	// Line is the 1-based source line where the block starts. For code
	// blocks this is the opening fence line.
	Line int
}

// Prose constructs a prose block.
func Prose(text string, line int) Block {
	return Block{Kind: KindProse, Text: text, Line: line}
}

// Code constructs a code block with an optional language tag.
func Code(lang, text string, line int) Block {
	return Block{Kind: KindCode, Text: text, Lang: lang, Line: line}
}

// Document is an ordered, immutable sequence of blocks.
type Document struct {
	blocks []Block
}

// New builds a Document from blocks. The slice is copied so later
// mutation of the caller's slice cannot reach the document.
func New(blocks []Block) *Document {
	owned := make([]Block, len(blocks))
	copy(owned, blocks)
	return &Document{blocks: owned}
}

// Blocks returns the blocks in document order. The returned slice is a
// fresh copy on every call.
func (d *Document) Blocks() []Block {
	out := make([]Block, len(d.blocks))
	copy(out, d.blocks)
	return out
}

// Len returns the number of blocks.
func (d *Document) Len() int {
	return len(d.blocks)
}

// CodeBlockCount returns how many code blocks the document contains.
func (d *Document) CodeBlockCount() int {
	n := 0
	for _, b := range d.blocks {
		if b.Kind == KindCode {
			n++
		}
	}
	return n
}

// Languages returns the distinct language tags of code blocks, in first
// appearance order. Untagged code blocks are skipped.
func (d *Document) Languages() []string {
	seen := make(map[string]struct{})
	var langs []string
	for _, b := range d.blocks {
		if b.Kind != KindCode || b.Lang == "" {
			continue
		}
		if _, ok := seen[b.Lang]; ok {
			continue
		}
		seen[b.Lang] = struct{}{}
		langs = append(langs, b.Lang)
	}
	return langs
}
