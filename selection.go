package diffstage

import (
	"fmt"
	"maps"
	"slices"
)

// SelectionMode is the default state of lines without an override.
type SelectionMode int

// Selection modes.
const (
	SelectNone SelectionMode = iota
	SelectAll
)

func (m SelectionMode) String() string {
	switch m {
	case SelectNone:
		return "none"
	case SelectAll:
		return "all"
	default:
		return fmt.Sprintf("SelectionMode(%d)", int(m))
	}
}

// SelectionType summarizes a selection against a concrete file.
type SelectionType int

// Selection types.
const (
	SelectionNone SelectionType = iota
	SelectionPartial
	SelectionAll
)

func (t SelectionType) String() string {
	switch t {
	case SelectionNone:
		return "none"
	case SelectionPartial:
		return "partial"
	case SelectionAll:
		return "all"
	default:
		return fmt.Sprintf("SelectionType(%d)", int(t))
	}
}

// Selection records which added and removed lines of a file should be
// staged. Lines are addressed by global line index: the 0-based position of
// the line among all added and removed lines of the file, in diff order.
//
// A Selection is a default mode plus sparse per-index overrides; an override
// always wins over the mode. Indices are not validated against any diff, so
// out-of-range overrides are inert. The zero value selects nothing.
type Selection struct {
	mode      SelectionMode
	overrides map[int]bool
}

// NewSelection returns a selection with the given default mode.
func NewSelection(mode SelectionMode) *Selection {
	return &Selection{mode: mode}
}

// Mode returns the default mode.
func (s *Selection) Mode() SelectionMode {
	return s.mode
}

// SetMode selects or deselects every line, discarding overrides.
func (s *Selection) SetMode(mode SelectionMode) {
	s.mode = mode
	s.overrides = nil
}

// Set overrides the state of the line at index.
func (s *Selection) Set(index int, selected bool) {
	if s.overrides == nil {
		s.overrides = make(map[int]bool)
	}
	s.overrides[index] = selected
}

// SetRange overrides every index in [from, to].
func (s *Selection) SetRange(from, to int, selected bool) {
	for i := from; i <= to; i++ {
		s.Set(i, selected)
	}
}

// Toggle flips the current state of the line at index.
func (s *Selection) Toggle(index int) {
	s.Set(index, !s.IsSelected(index))
}

// Clear removes the override for index so it follows the mode again.
func (s *Selection) Clear(index int) {
	delete(s.overrides, index)
}

// Override returns the override for index, if any.
func (s *Selection) Override(index int) (selected, ok bool) {
	selected, ok = s.overrides[index]
	return selected, ok
}

// Overrides returns a copy of all overrides.
func (s *Selection) Overrides() map[int]bool {
	return maps.Clone(s.overrides)
}

// OverrideIndices returns the overridden indices in ascending order.
func (s *Selection) OverrideIndices() []int {
	return slices.Sorted(maps.Keys(s.overrides))
}

// IsSelected reports whether the line at index is selected.
func (s *Selection) IsSelected(index int) bool {
	if selected, ok := s.overrides[index]; ok {
		return selected
	}
	return s.mode == SelectAll
}

// Clone returns an independent copy of the selection.
func (s *Selection) Clone() *Selection {
	return &Selection{mode: s.mode, overrides: maps.Clone(s.overrides)}
}

// Resolve materializes the selection against f, mapping every added and
// removed line to its selected state.
func (s *Selection) Resolve(f *FileDiff) (map[LineRef]bool, error) {
	if f.IsBinary {
		return nil, ErrBinaryContent
	}
	refs := f.Changes()
	resolved := make(map[LineRef]bool, len(refs))
	for i, ref := range refs {
		resolved[ref] = s.IsSelected(i)
	}
	return resolved, nil
}

// Type summarizes how much of f the selection covers.
// A file without changes reports the mode.
func (s *Selection) Type(f *FileDiff) SelectionType {
	n := f.ChangeCount()
	if n == 0 {
		if s.mode == SelectAll {
			return SelectionAll
		}
		return SelectionNone
	}
	var selected int
	for i := range n {
		if s.IsSelected(i) {
			selected++
		}
	}
	switch selected {
	case 0:
		return SelectionNone
	case n:
		return SelectionAll
	default:
		return SelectionPartial
	}
}
