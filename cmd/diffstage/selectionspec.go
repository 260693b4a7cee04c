package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fwojciec/diffstage"
	"github.com/spf13/pflag"
)

var _ pflag.Value = (*SelectionSpec)(nil)

// SelectionSpec is a list of selection edits given on the command line.
//
// Items are separated by commas and applied in order:
//
//	all, none   reset the selection mode and drop every override
//	3, 5-8      select lines by global index
//	-3, -5-8    deselect lines
//	+3          select, same as 3
type SelectionSpec struct {
	items []string
	edits []selectionEdit
}

type selectionEdit struct {
	setMode  bool
	mode     diffstage.SelectionMode
	from, to int
	selected bool
}

// String returns the items in the order they were given.
func (s *SelectionSpec) String() string {
	return strings.Join(s.items, ",")
}

// Set parses v and appends its items. It can be called repeatedly.
func (s *SelectionSpec) Set(v string) error {
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		edit, err := parseSelectionItem(item)
		if err != nil {
			return err
		}
		s.items = append(s.items, item)
		s.edits = append(s.edits, edit)
	}
	return nil
}

// Type names the flag value in help output.
func (s *SelectionSpec) Type() string {
	return "lines"
}

// Empty reports whether no items were given.
func (s *SelectionSpec) Empty() bool {
	return len(s.edits) == 0
}

// Apply performs the edits on sel for a file with count changed lines.
// Nothing is applied when an index is out of range.
func (s *SelectionSpec) Apply(sel *diffstage.Selection, count int) error {
	for i, e := range s.edits {
		if !e.setMode && e.to >= count {
			return fmt.Errorf("invalid selection %q: file has %d changed lines (0-%d)", s.items[i], count, count-1)
		}
	}
	for _, e := range s.edits {
		if e.setMode {
			sel.SetMode(e.mode)
			continue
		}
		sel.SetRange(e.from, e.to, e.selected)
	}
	return nil
}

func parseSelectionItem(item string) (selectionEdit, error) {
	switch item {
	case "all":
		return selectionEdit{setMode: true, mode: diffstage.SelectAll}, nil
	case "none":
		return selectionEdit{setMode: true, mode: diffstage.SelectNone}, nil
	}

	edit := selectionEdit{selected: true}
	rest := item
	switch rest[0] {
	case '-':
		edit.selected = false
		rest = rest[1:]
	case '+':
		rest = rest[1:]
	}

	lo, hi, isRange := strings.Cut(rest, "-")
	from, err := strconv.Atoi(lo)
	if err != nil || from < 0 {
		return selectionEdit{}, fmt.Errorf("invalid selection %q: expected line index", item)
	}
	to := from
	if isRange {
		to, err = strconv.Atoi(hi)
		if err != nil || to < from {
			return selectionEdit{}, fmt.Errorf("invalid selection %q: bad range end", item)
		}
	}
	edit.from, edit.to = from, to
	return edit, nil
}
