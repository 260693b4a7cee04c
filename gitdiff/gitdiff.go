// Package gitdiff implements diff parsing and in-memory patch application
// using bluekeyes/go-gitdiff.
package gitdiff

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/fwojciec/diffstage"
)

// Compile-time interface verification.
var (
	_ diffstage.Parser   = (*Parser)(nil)
	_ diffstage.Verifier = (*Verifier)(nil)
)

// Parser parses git diff output using go-gitdiff.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads diff content and returns the parsed result.
func (p *Parser) Parse(r io.Reader) (*diffstage.Diff, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", diffstage.ErrMalformedDiff, err)
	}

	result := &diffstage.Diff{
		Files: make([]diffstage.FileDiff, 0, len(files)),
	}
	for _, f := range files {
		result.Files = append(result.Files, convertFile(f))
	}
	return result, nil
}

func convertFile(f *gitdiff.File) diffstage.FileDiff {
	fd := diffstage.FileDiff{
		OldPath:  f.OldName,
		NewPath:  f.NewName,
		IsBinary: f.IsBinary,
		OldMode:  f.OldMode,
		NewMode:  f.NewMode,
	}

	switch {
	case f.IsNew, f.IsCopy:
		fd.Kind = diffstage.ChangeNew
	case f.IsDelete:
		fd.Kind = diffstage.ChangeDeleted
	case f.IsRename:
		fd.Kind = diffstage.ChangeRenamed
	default:
		fd.Kind = diffstage.ChangeModified
	}

	fd.Hunks = make([]diffstage.Hunk, 0, len(f.TextFragments))
	for _, frag := range f.TextFragments {
		fd.Hunks = append(fd.Hunks, convertFragment(frag))
	}
	return fd
}

func convertFragment(frag *gitdiff.TextFragment) diffstage.Hunk {
	hunk := diffstage.Hunk{
		OldStart: int(frag.OldPosition),
		OldCount: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewCount: int(frag.NewLines),
		Section:  frag.Comment,
	}

	oldLineNum := int(frag.OldPosition)
	newLineNum := int(frag.NewPosition)

	for _, l := range frag.Lines {
		line := diffstage.Line{
			Content:   strings.TrimSuffix(l.Line, "\n"),
			NoNewline: l.NoEOL(),
		}

		switch l.Op {
		case gitdiff.OpContext:
			line.Type = diffstage.LineContext
			line.OldLineNum = oldLineNum
			line.NewLineNum = newLineNum
			oldLineNum++
			newLineNum++
		case gitdiff.OpAdd:
			line.Type = diffstage.LineAdded
			line.NewLineNum = newLineNum
			newLineNum++
		case gitdiff.OpDelete:
			line.Type = diffstage.LineRemoved
			line.OldLineNum = oldLineNum
			oldLineNum++
		}

		hunk.Lines = append(hunk.Lines, line)
	}
	return hunk
}

// Verifier applies single-file patches in memory. Staging runs it against
// the index content before handing the patch to git, so a patch that would
// not apply is rejected without touching the index.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify returns the content that results from applying patch to base.
func (v *Verifier) Verify(patch string, base []byte) ([]byte, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", diffstage.ErrPatchRejected, err)
	}
	if len(files) != 1 {
		return nil, fmt.Errorf("%w: expected 1 file, got %d", diffstage.ErrPatchRejected, len(files))
	}
	if files[0].IsBinary {
		return nil, diffstage.ErrBinaryContent
	}

	var out bytes.Buffer
	if err := gitdiff.Apply(&out, bytes.NewReader(base), files[0]); err != nil {
		return nil, fmt.Errorf("%w: %v", diffstage.ErrPatchRejected, err)
	}
	return out.Bytes(), nil
}
