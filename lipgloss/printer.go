package lipgloss

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/diffstage"
	"github.com/fwojciec/diffstage/unified"
)

// StatusEntry is one row of the status listing.
type StatusEntry struct {
	Path      string
	OldPath   string
	Kind      diffstage.ChangeKind
	Selection diffstage.SelectionType
	Binary    bool
	Changes   int
}

// Printer writes styled diff listings.
type Printer struct {
	// Width limits the display width of line content. Zero disables
	// truncation.
	Width int

	styles styles
}

// NewPrinter creates a printer for theme. If renderer is nil, the default
// renderer is used.
func NewPrinter(theme *Theme, renderer *lipgloss.Renderer) *Printer {
	if theme == nil {
		theme = DefaultTheme()
	}
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	return &Printer{styles: newStyles(theme.Palette(), renderer)}
}

// Status writes one line per changed file with its kind and selection state.
func (p *Printer) Status(w io.Writer, entries []StatusEntry) error {
	for _, e := range entries {
		state := e.Selection.String()
		switch {
		case e.Kind == diffstage.ChangeConflicted:
			state = "conflicted"
		case e.Binary:
			state = "binary"
		}
		path := e.Path
		if e.OldPath != "" && e.OldPath != e.Path {
			path = e.OldPath + " -> " + e.Path
		}
		_, err := fmt.Fprintf(w, "%s %-10s %-10s %s\n",
			p.checkbox(e.Selection),
			e.Kind,
			state,
			p.styles.file.Render(path),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// File writes the hunks of f. Every added or removed line is prefixed with
// its selection mark and global line index, which is how lines are
// addressed when selecting.
func (p *Printer) File(w io.Writer, f *diffstage.FileDiff, sel *diffstage.Selection) error {
	if sel == nil {
		sel = diffstage.NewSelection(diffstage.SelectNone)
	}

	var b strings.Builder
	b.WriteString(p.styles.file.Render(fmt.Sprintf("%s (%s)", f.Path(), f.Kind)))
	b.WriteByte('\n')

	switch {
	case f.IsBinary:
		b.WriteString(p.styles.muted.Render("  binary file, can only be staged whole"))
		b.WriteByte('\n')
	case f.Kind == diffstage.ChangeConflicted:
		b.WriteString(p.styles.muted.Render("  unresolved conflict"))
		b.WriteByte('\n')
	case f.ChangeCount() == 0:
		b.WriteString(p.styles.muted.Render("  no line changes"))
		b.WriteByte('\n')
	}

	digits := len(strconv.Itoa(max(f.ChangeCount()-1, 0)))
	// mark, space, index, space
	gutter := 3 + 1 + digits + 1
	index := 0
	for i := range f.Hunks {
		h := &f.Hunks[i]
		b.WriteString(p.styles.header.Render(unified.HunkHeader(h)))
		b.WriteByte('\n')
		for _, l := range h.Lines {
			if l.Type == diffstage.LineContext {
				b.WriteString(strings.Repeat(" ", gutter))
			} else {
				selected := sel.IsSelected(index)
				b.WriteString(p.mark(selected))
				b.WriteByte(' ')
				b.WriteString(p.styles.muted.Render(fmt.Sprintf("%*d", digits, index)))
				b.WriteByte(' ')
				index++
			}
			b.WriteString(p.line(l.Type, l.Content, gutter))
			b.WriteByte('\n')
			if l.NoNewline {
				b.WriteString(strings.Repeat(" ", gutter))
				b.WriteString(p.styles.muted.Render(unified.NoNewlineMarker))
				b.WriteByte('\n')
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Patch writes patch text with file headers, hunk headers and line types
// colored.
func (p *Printer) Patch(w io.Writer, patch string) error {
	var b strings.Builder
	inHunk := false
	for _, line := range strings.Split(strings.TrimSuffix(patch, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "diff "):
			inHunk = false
			b.WriteString(p.styles.file.Render(line))
		case strings.HasPrefix(line, "@@"):
			inHunk = true
			b.WriteString(p.styles.header.Render(line))
		case !inHunk:
			b.WriteString(p.styles.file.Render(line))
		case line == "":
			// Only reached for an empty patch.
		case line[0] == '\\':
			b.WriteString(p.styles.muted.Render(line))
		default:
			b.WriteString(p.line(lineType(line[0]), line[1:], 0))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// line renders a prefixed content line starting at column col.
func (p *Printer) line(t diffstage.LineType, content string, col int) string {
	prefix := " "
	style := p.styles.context
	switch t {
	case diffstage.LineAdded:
		prefix, style = "+", p.styles.added
	case diffstage.LineRemoved:
		prefix, style = "-", p.styles.removed
	}
	width := 0
	if p.Width > 0 {
		width = max(p.Width-col-1, 1)
	}
	return style.Render(prefix + truncate(content, col+1, width))
}

func (p *Printer) mark(selected bool) string {
	if selected {
		return p.styles.selected.Render("[x]")
	}
	return p.styles.muted.Render("[ ]")
}

func (p *Printer) checkbox(t diffstage.SelectionType) string {
	switch t {
	case diffstage.SelectionAll:
		return p.styles.selected.Render("[x]")
	case diffstage.SelectionPartial:
		return p.styles.selected.Render("[~]")
	default:
		return p.styles.muted.Render("[ ]")
	}
}

func lineType(marker byte) diffstage.LineType {
	switch marker {
	case '+':
		return diffstage.LineAdded
	case '-':
		return diffstage.LineRemoved
	default:
		return diffstage.LineContext
	}
}
