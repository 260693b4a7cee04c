package diffstage

import "io"

// Parser parses diff content into domain types.
type Parser interface {
	// Parse reads diff content and returns the parsed result.
	Parse(r io.Reader) (*Diff, error)
}

// Synthesizer builds patches that stage a subset of a file's changes.
type Synthesizer interface {
	// Synthesize returns patch text containing only the selected lines of f,
	// shaped for the given change kind.
	Synthesize(f *FileDiff, sel *Selection, kind ChangeKind) (string, error)
}

// Verifier checks that a patch applies cleanly to base content.
type Verifier interface {
	// Verify returns the content that results from applying patch to base.
	Verify(patch string, base []byte) ([]byte, error)
}
