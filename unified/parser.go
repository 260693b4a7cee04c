// Package unified parses and writes unified diff text as produced and
// consumed by git.
package unified

import (
	"io"
	"io/fs"
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/diffstage"
)

// Compile-time interface verification.
var _ diffstage.Parser = (*Parser)(nil)

// hunkHeaderRegex matches "@@ -oldStart[,oldCount] +newStart[,newCount] @@ section".
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(?: (.*))?$`)

// Parser parses unified diff text. It never recovers from structural
// errors: any unparseable hunk header or stray content line fails the
// whole parse.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads the output of "git diff" for one or more files, including
// file headers, and returns the parsed result. Input without "diff --git"
// lines is treated as a single file.
func (p *Parser) Parse(r io.Reader) (*diffstage.Diff, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := splitLines(string(data))

	result := &diffstage.Diff{}
	for _, seg := range splitFiles(lines) {
		fd, err := parseFile(seg.lines, seg.offset)
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, *fd)
	}
	return result, nil
}

// ParseBody parses the diff of a single file whose header metadata has
// already been stripped. The returned FileDiff carries only hunks, or
// IsBinary when the body is a binary-file marker.
func (p *Parser) ParseBody(body string) (*diffstage.FileDiff, error) {
	hunks, binary, err := parseHunks(splitLines(body), 0)
	if err != nil {
		return nil, err
	}
	return &diffstage.FileDiff{IsBinary: binary, Hunks: hunks}, nil
}

// splitLines splits text into lines without their terminators. A final
// newline does not produce an empty trailing line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

type segment struct {
	lines  []string
	offset int // number of input lines before the segment
}

// splitFiles cuts input at every "diff " file header line.
func splitFiles(lines []string) []segment {
	var segs []segment
	start := 0
	for i, line := range lines {
		if i > start && isFileHeader(line) {
			segs = append(segs, segment{lines: lines[start:i], offset: start})
			start = i
		}
	}
	if start < len(lines) {
		segs = append(segs, segment{lines: lines[start:], offset: start})
	}
	return segs
}

func isFileHeader(line string) bool {
	return strings.HasPrefix(line, "diff --git ") ||
		strings.HasPrefix(line, "diff --cc ") ||
		strings.HasPrefix(line, "diff --combined ")
}

func isBinaryMarker(line string) bool {
	return line == "GIT binary patch" ||
		(strings.HasPrefix(line, "Binary files ") && strings.HasSuffix(line, " differ"))
}

// parseFile reads the header metadata of one file and then its hunks.
func parseFile(lines []string, offset int) (*diffstage.FileDiff, error) {
	fd := &diffstage.FileDiff{}
	if len(lines) == 0 {
		return fd, nil
	}

	first := lines[0]
	if strings.HasPrefix(first, "diff --cc ") || strings.HasPrefix(first, "diff --combined ") {
		// Combined diffs only appear for unmerged paths.
		fd.Kind = diffstage.ChangeConflicted
		fd.NewPath = strings.TrimPrefix(strings.TrimPrefix(first, "diff --cc "), "diff --combined ")
		fd.OldPath = fd.NewPath
		return fd, nil
	}
	if strings.HasPrefix(first, "diff --git ") {
		fd.OldPath, fd.NewPath = parseGitHeaderPaths(strings.TrimPrefix(first, "diff --git "))
	}

	for i, line := range lines {
		if strings.HasPrefix(line, "@@") || isBinaryMarker(line) {
			break
		}
		var err error
		switch {
		case strings.HasPrefix(line, "new file mode "):
			fd.Kind = diffstage.ChangeNew
			fd.OldPath = ""
			fd.NewMode, err = parseMode(strings.TrimPrefix(line, "new file mode "))
		case strings.HasPrefix(line, "deleted file mode "):
			fd.Kind = diffstage.ChangeDeleted
			fd.NewPath = ""
			fd.OldMode, err = parseMode(strings.TrimPrefix(line, "deleted file mode "))
		case strings.HasPrefix(line, "old mode "):
			fd.OldMode, err = parseMode(strings.TrimPrefix(line, "old mode "))
		case strings.HasPrefix(line, "new mode "):
			fd.NewMode, err = parseMode(strings.TrimPrefix(line, "new mode "))
		case strings.HasPrefix(line, "rename from "):
			fd.Kind = diffstage.ChangeRenamed
			fd.OldPath = unquotePath(strings.TrimPrefix(line, "rename from "))
		case strings.HasPrefix(line, "rename to "):
			fd.Kind = diffstage.ChangeRenamed
			fd.NewPath = unquotePath(strings.TrimPrefix(line, "rename to "))
		case strings.HasPrefix(line, "index "):
			// "index abc..def 100644" carries the mode when it is unchanged.
			if fields := strings.Fields(line); len(fields) == 3 && fd.OldMode == 0 && fd.NewMode == 0 {
				var mode fs.FileMode
				mode, err = parseMode(fields[2])
				fd.OldMode, fd.NewMode = mode, mode
			}
		case strings.HasPrefix(line, "--- "):
			if path, ok := headerPath(strings.TrimPrefix(line, "--- "), "a/"); ok {
				fd.OldPath = path
			} else {
				fd.OldPath = ""
			}
		case strings.HasPrefix(line, "+++ "):
			if path, ok := headerPath(strings.TrimPrefix(line, "+++ "), "b/"); ok {
				fd.NewPath = path
			} else {
				fd.NewPath = ""
			}
		}
		if err != nil {
			return nil, &diffstage.MalformedDiffError{Line: offset + i + 1, Text: line, Reason: "invalid file mode"}
		}
	}

	hunks, binary, err := parseHunks(lines, offset)
	if err != nil {
		return nil, err
	}
	fd.IsBinary = binary
	fd.Hunks = hunks
	return fd, nil
}

// parseGitHeaderPaths splits "a/old b/new", where either name may be
// C-quoted. Unquoted paths containing " b/" are ambiguous here and are
// corrected by later ---/+++ or rename lines.
func parseGitHeaderPaths(s string) (oldPath, newPath string) {
	if old, rest, ok := cutQuoted(s); ok {
		newName := unquotePath(strings.TrimPrefix(rest, " "))
		return strings.TrimPrefix(old, "a/"), strings.TrimPrefix(newName, "b/")
	}
	if strings.HasSuffix(s, `"`) {
		if i := strings.Index(s, ` "b/`); i >= 0 {
			if newName, rest, ok := cutQuoted(s[i+1:]); ok && rest == "" {
				return strings.TrimPrefix(s[:i], "a/"), strings.TrimPrefix(newName, "b/")
			}
		}
	}
	idx := strings.LastIndex(s, " b/")
	if idx < 0 {
		return "", ""
	}
	return strings.TrimPrefix(s[:idx], "a/"), s[idx+len(" b/"):]
}

// headerPath strips the prefix from a ---/+++ path. It reports false for
// /dev/null.
func headerPath(s, prefix string) (string, bool) {
	// Timestamps follow a tab in non-git diffs.
	if i := strings.IndexByte(s, '\t'); i >= 0 {
		s = s[:i]
	}
	if s == "/dev/null" {
		return "", false
	}
	return strings.TrimPrefix(unquotePath(s), prefix), true
}

func parseMode(s string) (fs.FileMode, error) {
	mode, err := strconv.ParseUint(strings.TrimSpace(s), 8, 32)
	if err != nil {
		return 0, err
	}
	return fs.FileMode(mode), nil
}

// parseHunks classifies lines into hunks. Lines before the first hunk
// header are file metadata and are skipped, except for content lines,
// which are rejected. A binary marker before the first hunk short-circuits.
//
// Only the one-byte marker is removed from a hunk line; everything after it,
// including a leading space, is content. Stripping that space too would lose
// indentation, and patches written back from such lines would not apply.
func parseHunks(lines []string, offset int) ([]diffstage.Hunk, bool, error) {
	var hunks []diffstage.Hunk
	var oldNum, newNum int

	malformed := func(i int, reason string) error {
		return &diffstage.MalformedDiffError{Line: offset + i + 1, Text: lines[i], Reason: reason}
	}

	for i, line := range lines {
		if strings.HasPrefix(line, "@@") {
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, false, malformed(i, "invalid hunk header")
			}
			hunks = append(hunks, h)
			oldNum, newNum = h.OldStart, h.NewStart
			continue
		}

		if len(hunks) == 0 {
			switch {
			case isBinaryMarker(line):
				return nil, true, nil
			case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
				// File header.
			case line == "":
			case line[0] == '+', line[0] == '-', line[0] == ' ', line[0] == '\\':
				return nil, false, malformed(i, "content line outside of hunk")
			}
			continue
		}

		h := &hunks[len(hunks)-1]
		if line == "" {
			return nil, false, malformed(i, "missing line marker")
		}
		switch line[0] {
		case ' ':
			h.Lines = append(h.Lines, diffstage.Line{
				Type:       diffstage.LineContext,
				Content:    line[1:],
				OldLineNum: oldNum,
				NewLineNum: newNum,
			})
			oldNum++
			newNum++
		case '-':
			h.Lines = append(h.Lines, diffstage.Line{
				Type:       diffstage.LineRemoved,
				Content:    line[1:],
				OldLineNum: oldNum,
			})
			oldNum++
		case '+':
			h.Lines = append(h.Lines, diffstage.Line{
				Type:       diffstage.LineAdded,
				Content:    line[1:],
				NewLineNum: newNum,
			})
			newNum++
		case '\\':
			if len(h.Lines) == 0 {
				return nil, false, malformed(i, "no-newline marker without a preceding line")
			}
			h.Lines[len(h.Lines)-1].NoNewline = true
		default:
			return nil, false, malformed(i, "missing line marker")
		}
	}
	return hunks, false, nil
}

func parseHunkHeader(line string) (diffstage.Hunk, error) {
	m := hunkHeaderRegex.FindStringSubmatch(line)
	if m == nil {
		return diffstage.Hunk{}, diffstage.ErrMalformedDiff
	}
	var h diffstage.Hunk
	var err error
	if h.OldStart, err = strconv.Atoi(m[1]); err != nil {
		return h, err
	}
	if h.OldCount, err = parseCount(m[2]); err != nil {
		return h, err
	}
	if h.NewStart, err = strconv.Atoi(m[3]); err != nil {
		return h, err
	}
	if h.NewCount, err = parseCount(m[4]); err != nil {
		return h, err
	}
	h.Section = m[5]
	return h, nil
}

// parseCount parses a hunk range count. A missing count means 1.
func parseCount(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	return strconv.Atoi(s)
}
