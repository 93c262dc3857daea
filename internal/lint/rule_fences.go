package lint

import (
	"bytes"
	"errors"
	"os"

	"git.home.luguber.info/inful/mdpage/internal/fence"
	"git.home.luguber.info/inful/mdpage/internal/frontmatter"
)

// FenceRule verifies that every code fence in the article body parses:
// opened fences are closed and info strings are well formed. A broken
// fence fails the whole render, so this surfaces at error severity.
type FenceRule struct{}

const fenceRuleName = "code-fences"

func (r *FenceRule) Name() string {
	return fenceRuleName
}

func (r *FenceRule) AppliesTo(filePath string) bool {
	return IsDocFile(filePath)
}

func (r *FenceRule) Check(filePath string) ([]Issue, error) {
	// #nosec G304 -- filePath comes from the lint walk.
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	body := data
	lineOffset := 0
	if _, rest, had, _, splitErr := frontmatter.Split(data); splitErr == nil && had {
		// Body line numbers shift by the header length.
		lineOffset = bytes.Count(data[:len(data)-len(rest)], []byte("\n"))
		body = rest
	}

	if _, parseErr := fence.Parse(body); parseErr != nil {
		issue := Issue{
			FilePath: filePath,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  parseErr.Error(),
			Explanation: "The article cannot be rendered: every opened code fence must be\n" +
				"closed by a matching delimiter run before the end of the file.",
			Fix: "Close or correct the fence at the reported line.",
		}

		var perr *fence.ParseError
		if errors.As(parseErr, &perr) {
			issue.Line = perr.Line + lineOffset
			issue.Message = perr.Err.Error()
		}

		return []Issue{issue}, nil
	}

	return nil, nil
}
