package unified

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/fwojciec/diffstage"
)

// NoNewlineMarker follows a line that has no trailing newline.
const NoNewlineMarker = `\ No newline at end of file`

// DefaultMode is used for new and deleted files without a recorded mode.
const DefaultMode fs.FileMode = 0o100644

// HunkHeader formats the "@@ -a,b +c,d @@" line of h. Counts of 1 are
// omitted, as git does.
func HunkHeader(h *diffstage.Hunk) string {
	header := fmt.Sprintf("@@ -%s +%s @@", formatRange(h.OldStart, h.OldCount), formatRange(h.NewStart, h.NewCount))
	if h.Section != "" {
		header += " " + h.Section
	}
	return header
}

func formatRange(start, count int) string {
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// WriteHunk writes the header and lines of h.
func WriteHunk(w io.Writer, h *diffstage.Hunk) error {
	var b strings.Builder
	b.WriteString(HunkHeader(h))
	b.WriteByte('\n')
	for _, l := range h.Lines {
		b.WriteByte(marker(l.Type))
		b.WriteString(l.Content)
		b.WriteByte('\n')
		if l.NoNewline {
			b.WriteString(NoNewlineMarker)
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func marker(t diffstage.LineType) byte {
	switch t {
	case diffstage.LineAdded:
		return '+'
	case diffstage.LineRemoved:
		return '-'
	default:
		return ' '
	}
}

// WriteFile writes f as git-style diff text: the "diff --git" line, the
// extended headers implied by f.Kind and its modes, the ---/+++ lines and
// every hunk. The ---/+++ lines are omitted when f has no hunks, which is
// how git describes an empty new or deleted file.
func WriteFile(w io.Writer, f *diffstage.FileDiff) error {
	oldPath, newPath := f.OldPath, f.NewPath
	if oldPath == "" {
		oldPath = newPath
	}
	if newPath == "" {
		newPath = oldPath
	}

	var b strings.Builder
	fromPath, toPath := quotePath("a/"+oldPath), quotePath("b/"+newPath)
	fmt.Fprintf(&b, "diff --git %s %s\n", fromPath, toPath)

	switch f.Kind {
	case diffstage.ChangeNew:
		fmt.Fprintf(&b, "new file mode %o\n", uint32(modeOrDefault(f.NewMode)))
		fromPath = "/dev/null"
	case diffstage.ChangeDeleted:
		fmt.Fprintf(&b, "deleted file mode %o\n", uint32(modeOrDefault(f.OldMode)))
		toPath = "/dev/null"
	default:
		if f.OldMode != 0 && f.NewMode != 0 && f.OldMode != f.NewMode {
			fmt.Fprintf(&b, "old mode %o\nnew mode %o\n", uint32(f.OldMode), uint32(f.NewMode))
		}
		if f.Kind == diffstage.ChangeRenamed && oldPath != newPath {
			fmt.Fprintf(&b, "rename from %s\nrename to %s\n", quotePath(oldPath), quotePath(newPath))
		}
	}

	if len(f.Hunks) > 0 {
		fmt.Fprintf(&b, "--- %s\n+++ %s\n", fromPath, toPath)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	for i := range f.Hunks {
		if err := WriteHunk(w, &f.Hunks[i]); err != nil {
			return err
		}
	}
	return nil
}

// Format returns f as diff text.
func Format(f *diffstage.FileDiff) string {
	var b strings.Builder
	// strings.Builder never fails.
	_ = WriteFile(&b, f)
	return b.String()
}

func modeOrDefault(m fs.FileMode) fs.FileMode {
	if m == 0 {
		return DefaultMode
	}
	return m
}
