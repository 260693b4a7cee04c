// Package patch synthesizes partial patches that stage a selected subset of
// a file's added and removed lines.
package patch

import (
	"github.com/fwojciec/diffstage"
	"github.com/fwojciec/diffstage/unified"
)

// Compile-time interface verification.
var _ diffstage.Synthesizer = (*Synthesizer)(nil)

// Synthesizer builds partial patches. It holds no state and is safe for
// concurrent use.
type Synthesizer struct{}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize returns patch text that stages only the selected lines of f.
// It returns ErrEmptySelection when the patch would stage nothing, in which
// case the apply step should be skipped.
func (s *Synthesizer) Synthesize(f *diffstage.FileDiff, sel *diffstage.Selection, kind diffstage.ChangeKind) (string, error) {
	out, err := s.Build(f, sel, kind)
	if err != nil {
		return "", err
	}
	if len(out.Hunks) == 0 && !stagesEmptyFile(f, sel, kind) {
		return "", diffstage.ErrEmptySelection
	}
	return unified.Format(out), nil
}

// Build returns the partial patch as a FileDiff. The result may have no
// hunks, meaning there is nothing to stage from f.
func (s *Synthesizer) Build(f *diffstage.FileDiff, sel *diffstage.Selection, kind diffstage.ChangeKind) (*diffstage.FileDiff, error) {
	if f.IsBinary {
		return nil, diffstage.ErrBinaryContent
	}
	if sel == nil {
		sel = diffstage.NewSelection(diffstage.SelectNone)
	}

	switch kind {
	case diffstage.ChangeConflicted:
		return nil, diffstage.ErrConflicted
	case diffstage.ChangeNew:
		return buildNew(f, sel), nil
	case diffstage.ChangeDeleted:
		return buildDeleted(f, sel), nil
	default:
		// Renamed files are patched against the post-rename path.
		path := f.Path()
		oldPath := f.OldPath
		if kind == diffstage.ChangeRenamed || oldPath == "" {
			oldPath = path
		}
		return &diffstage.FileDiff{
			OldPath: oldPath,
			NewPath: path,
			Kind:    diffstage.ChangeModified,
			Hunks:   buildHunks(f, sel, allLines),
		}, nil
	}
}

// stagesEmptyFile reports whether a hunkless patch still changes the index:
// creating or deleting a file that has no lines.
func stagesEmptyFile(f *diffstage.FileDiff, sel *diffstage.Selection, kind diffstage.ChangeKind) bool {
	if kind != diffstage.ChangeNew && kind != diffstage.ChangeDeleted {
		return false
	}
	return f.ChangeCount() == 0 && sel.Type(f) == diffstage.SelectionAll
}

// buildNew keeps only the selected added lines as a single hunk against
// /dev/null.
func buildNew(f *diffstage.FileDiff, sel *diffstage.Selection) *diffstage.FileDiff {
	out := &diffstage.FileDiff{
		NewPath: f.Path(),
		Kind:    diffstage.ChangeNew,
		NewMode: f.NewMode,
	}

	var lines []diffstage.Line
	var eofExcluded bool
	index := 0
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.Type == diffstage.LineContext {
				continue
			}
			selected := sel.IsSelected(index)
			index++
			if l.Type != diffstage.LineAdded {
				continue
			}
			if !selected {
				eofExcluded = eofExcluded || l.NoNewline
				continue
			}
			lines = append(lines, diffstage.Line{
				Type:       diffstage.LineAdded,
				Content:    l.Content,
				NewLineNum: len(lines) + 1,
				NoNewline:  l.NoNewline,
			})
		}
	}
	if len(lines) == 0 {
		return out
	}

	// Only the last line of a file may lack a newline.
	for i := range lines[:len(lines)-1] {
		lines[i].NoNewline = false
	}
	if eofExcluded {
		lines[len(lines)-1].NoNewline = true
	}

	out.Hunks = []diffstage.Hunk{{
		OldStart: 0,
		OldCount: 0,
		NewStart: 1,
		NewCount: len(lines),
		Lines:    lines,
	}}
	return out
}

// buildDeleted stages a full deletion as a deleted file, and a partial one
// as a modification that keeps the unselected lines.
func buildDeleted(f *diffstage.FileDiff, sel *diffstage.Selection) *diffstage.FileDiff {
	path := f.Path()
	hunks := buildHunks(f, sel, removedLines)
	if sel.Type(f) == diffstage.SelectionAll {
		return &diffstage.FileDiff{
			OldPath: path,
			Kind:    diffstage.ChangeDeleted,
			OldMode: f.OldMode,
			Hunks:   hunks,
		}
	}
	return &diffstage.FileDiff{
		OldPath: path,
		NewPath: path,
		Kind:    diffstage.ChangeModified,
		Hunks:   hunks,
	}
}

// lineFilter decides which line types take part in synthesis. Lines of
// other types still consume a global index.
type lineFilter func(diffstage.LineType) bool

func allLines(diffstage.LineType) bool { return true }

func removedLines(t diffstage.LineType) bool { return t != diffstage.LineAdded }

// emittedType maps a line and its selected state to the type it is written
// as in the partial patch. ok is false when the line is left out.
//
//	(Added, true)   -> Added
//	(Added, false)  -> omitted
//	(Removed, true) -> Removed
//	(Removed, false)-> Context
//	(Context, *)    -> Context
func emittedType(t diffstage.LineType, selected bool) (emitted diffstage.LineType, ok bool) {
	switch t {
	case diffstage.LineAdded:
		return diffstage.LineAdded, selected
	case diffstage.LineRemoved:
		if selected {
			return diffstage.LineRemoved, true
		}
		return diffstage.LineContext, true
	default:
		return diffstage.LineContext, true
	}
}

// buildHunks rewrites every hunk of f for the selection, drops hunks left
// with only context, and renumbers the survivors.
func buildHunks(f *diffstage.FileDiff, sel *diffstage.Selection, include lineFilter) []diffstage.Hunk {
	var hunks []diffstage.Hunk
	var delta int
	index := 0
	for _, h := range f.Hunks {
		var lines []diffstage.Line
		var eofExcluded bool
		for _, l := range h.Lines {
			selected := false
			if l.Type != diffstage.LineContext {
				selected = sel.IsSelected(index)
				index++
			}
			if !include(l.Type) {
				continue
			}
			t, ok := emittedType(l.Type, selected)
			if !ok {
				eofExcluded = eofExcluded || l.NoNewline
				continue
			}
			lines = append(lines, diffstage.Line{Type: t, Content: l.Content, NoNewline: l.NoNewline})
		}
		if kept := (diffstage.Hunk{Lines: lines}); !kept.HasChanges() {
			continue
		}

		out := renumber(h.OldStart, delta, fixNoNewline(lines, eofExcluded))
		out.Section = h.Section
		delta += out.NewCount - out.OldCount
		hunks = append(hunks, out)
	}
	return hunks
}

// fixNoNewline keeps the no-newline markers consistent with the new side of
// the hunk. eofExcluded is set when the line that ended the new file without
// a newline was left out; the new last line then takes over that state.
// A retained old line that lacks a newline but is no longer last on the new
// side is rewritten as its removal followed by an addition with a newline.
func fixNoNewline(lines []diffstage.Line, eofExcluded bool) []diffstage.Line {
	last := -1
	for i, l := range lines {
		if l.Type != diffstage.LineRemoved {
			last = i
		}
	}

	out := make([]diffstage.Line, 0, len(lines)+1)
	var trailing []diffstage.Line
	for i, l := range lines {
		switch {
		case l.Type == diffstage.LineRemoved:
			out = append(out, l)
		case i == last && eofExcluded && !l.NoNewline:
			if l.Type == diffstage.LineAdded {
				l.NoNewline = true
				out = append(out, l)
				break
			}
			// The addition goes last so the old side keeps its order.
			out = append(out, diffstage.Line{Type: diffstage.LineRemoved, Content: l.Content})
			trailing = append(trailing, diffstage.Line{Type: diffstage.LineAdded, Content: l.Content, NoNewline: true})
		case i != last && l.NoNewline:
			if l.Type == diffstage.LineAdded {
				l.NoNewline = false
				out = append(out, l)
				break
			}
			out = append(out,
				diffstage.Line{Type: diffstage.LineRemoved, Content: l.Content, NoNewline: true},
				diffstage.Line{Type: diffstage.LineAdded, Content: l.Content},
			)
		default:
			out = append(out, l)
		}
	}
	return append(out, trailing...)
}

// renumber computes counts, starts and line numbers of a rewritten hunk.
// The old side of a hunk never moves; the new side shifts by the net line
// change of the hunks emitted before it.
func renumber(oldStart, delta int, lines []diffstage.Line) diffstage.Hunk {
	var oldCount, newCount int
	for _, l := range lines {
		if l.Type != diffstage.LineAdded {
			oldCount++
		}
		if l.Type != diffstage.LineRemoved {
			newCount++
		}
	}

	// A zero count names the line before the range.
	oldFirst := oldStart
	if oldCount == 0 {
		oldFirst++
	}
	newStart := oldFirst + delta
	if newCount == 0 {
		newStart--
	}

	oldNum, newNum := oldFirst, oldFirst+delta
	for i := range lines {
		switch lines[i].Type {
		case diffstage.LineContext:
			lines[i].OldLineNum, lines[i].NewLineNum = oldNum, newNum
			oldNum++
			newNum++
		case diffstage.LineRemoved:
			lines[i].OldLineNum = oldNum
			oldNum++
		case diffstage.LineAdded:
			lines[i].NewLineNum = newNum
			newNum++
		}
	}

	return diffstage.Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
		Lines:    lines,
	}
}
