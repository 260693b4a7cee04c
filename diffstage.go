// Package diffstage provides domain types for parsing diffs and staging
// selected lines of them.
package diffstage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
)

// Diff represents a complete diff containing one or more file changes.
type Diff struct {
	Files []FileDiff
}

// FileDiff represents changes to a single file.
type FileDiff struct {
	OldPath  string      // "file.go" or empty for new files
	NewPath  string      // "file.go" or empty for deleted files
	Kind     ChangeKind  // New, Modified, Deleted, Renamed, Conflicted
	IsBinary bool        // Binary files have no hunks
	OldMode  fs.FileMode // Raw git mode bits, 0 if unknown
	NewMode  fs.FileMode // Raw git mode bits, 0 if unknown
	Hunks    []Hunk
}

// Path returns the path the file has after the change.
func (f *FileDiff) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// ChangeCount returns the number of added and removed lines in the file.
func (f *FileDiff) ChangeCount() int {
	var n int
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.Type != LineContext {
				n++
			}
		}
	}
	return n
}

// Changes returns references to every added or removed line in diff order.
// The position of a reference in the result is its global line index.
func (f *FileDiff) Changes() []LineRef {
	var refs []LineRef
	for hi, h := range f.Hunks {
		for li, l := range h.Lines {
			if l.Type != LineContext {
				refs = append(refs, LineRef{Hunk: hi, Line: li})
			}
		}
	}
	return refs
}

// LineRef addresses a line by hunk index and line index within the hunk.
type LineRef struct {
	Hunk int
	Line int
}

// ChangeKind is the kind of change a file has in the working tree.
type ChangeKind int

// Change kinds.
const (
	ChangeModified ChangeKind = iota
	ChangeNew
	ChangeDeleted
	ChangeRenamed
	ChangeConflicted
)

var changeKindNames = [...]string{
	ChangeModified:   "modified",
	ChangeNew:        "new",
	ChangeDeleted:    "deleted",
	ChangeRenamed:    "renamed",
	ChangeConflicted: "conflicted",
}

func (k ChangeKind) String() string {
	if k < 0 || int(k) >= len(changeKindNames) {
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
	return changeKindNames[k]
}

// Hunk represents a contiguous block of changes within a file.
type Hunk struct {
	OldStart int    // From @@ -X,...
	OldCount int    // From @@ -X,Y ...
	NewStart int    // From @@ ...,+X
	NewCount int    // From @@ ...,+X,Y
	Section  string // Optional function name after @@ ... @@
	Lines    []Line
}

// HasChanges reports whether the hunk contains any added or removed line.
func (h *Hunk) HasChanges() bool {
	for _, l := range h.Lines {
		if l.Type != LineContext {
			return true
		}
	}
	return false
}

// Line represents a single line within a hunk.
type Line struct {
	Type       LineType
	Content    string
	OldLineNum int  // 0 if line is Added
	NewLineNum int  // 0 if line is Removed
	NoNewline  bool // "\ No newline at end of file" marker
}

// LineType represents the type of a diff line.
type LineType int

// Line types.
const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

func (t LineType) String() string {
	switch t {
	case LineContext:
		return "context"
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return fmt.Sprintf("LineType(%d)", int(t))
	}
}

// Errors returned by parsers, selections and synthesizers.
var (
	// ErrMalformedDiff is returned when diff text cannot be parsed.
	ErrMalformedDiff = errors.New("malformed diff")

	// ErrEmptySelection is returned when a selection would stage nothing.
	// Callers should skip the apply step.
	ErrEmptySelection = errors.New("selection is empty")

	// ErrBinaryContent is returned when a line-level operation is requested
	// for a binary file.
	ErrBinaryContent = errors.New("binary content")

	// ErrConflicted is returned when a patch is requested for a file with
	// unresolved conflicts.
	ErrConflicted = errors.New("file has conflicts")

	// ErrPatchRejected is returned when a patch does not apply.
	ErrPatchRejected = errors.New("patch rejected")
)

// MalformedDiffError describes where and why parsing failed.
type MalformedDiffError struct {
	Line   int    // 1-based line number in the input
	Text   string // Offending input line
	Reason string
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed diff: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Unwrap allows errors.Is(err, ErrMalformedDiff).
func (e *MalformedDiffError) Unwrap() error {
	return ErrMalformedDiff
}

// Fingerprint identifies the sequence of added and removed lines of f.
// A selection only applies to diffs with the same fingerprint.
func (f *FileDiff) Fingerprint() string {
	h := sha256.New()
	for _, hunk := range f.Hunks {
		for _, l := range hunk.Lines {
			if l.Type == LineContext {
				continue
			}
			fmt.Fprintf(h, "%d:%d:%s\n", l.Type, len(l.Content), l.Content)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
