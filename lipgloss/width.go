package lipgloss

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// tabWidth is the standard terminal tab stop interval.
const tabWidth = 8

// ellipsis marks truncated content.
const ellipsis = "…"

// DisplayWidth calculates the display width of a string, correctly handling
// tab characters which expand to the next 8-column boundary.
func DisplayWidth(s string) int {
	return displayWidthFrom(s, 0)
}

// displayWidthFrom calculates the display width of s when it starts at
// column startCol. Tab expansion depends on the starting column.
func displayWidthFrom(s string, startCol int) int {
	col := startCol
	for _, r := range s {
		if r == '\t' {
			col = ((col / tabWidth) + 1) * tabWidth
		} else {
			col += lipgloss.Width(string(r))
		}
	}
	return col - startCol
}

// expandTabs replaces tabs in s with spaces, assuming s starts at column
// startCol.
func expandTabs(s string, startCol int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := startCol
	for _, r := range s {
		if r == '\t' {
			next := ((col / tabWidth) + 1) * tabWidth
			b.WriteString(strings.Repeat(" ", next-col))
			col = next
			continue
		}
		b.WriteRune(r)
		col += lipgloss.Width(string(r))
	}
	return b.String()
}

// truncate shortens s, which starts at column startCol, so that it ends at
// or before column startCol+width. Tabs are expanded first. A width of zero
// or less disables truncation.
func truncate(s string, startCol, width int) string {
	s = expandTabs(s, startCol)
	if width <= 0 || displayWidthFrom(s, startCol) <= width {
		return s
	}
	limit := width - lipgloss.Width(ellipsis)
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > limit {
			break
		}
		b.WriteRune(r)
		used += w
	}
	b.WriteString(ellipsis)
	return b.String()
}
