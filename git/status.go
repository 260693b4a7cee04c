package git

import (
	"fmt"
	"strings"

	"github.com/fwojciec/diffstage"
)

// parseStatus parses "git status --porcelain=v1 -z" output into files with
// unstaged changes. Files whose changes are all staged are skipped.
func parseStatus(out string) ([]diffstage.FileStatus, error) {
	var files []diffstage.FileStatus
	entries := strings.Split(strings.TrimSuffix(out, "\x00"), "\x00")
	for i := 0; i < len(entries); i++ {
		entry := entries[i]
		if entry == "" {
			continue
		}
		if len(entry) < 4 || entry[2] != ' ' {
			return nil, fmt.Errorf("unexpected status entry %q", entry)
		}
		x, y, path := entry[0], entry[1], entry[3:]

		var oldPath string
		if x == 'R' || x == 'C' {
			// The source path follows as its own entry.
			if i+1 >= len(entries) {
				return nil, fmt.Errorf("missing source path for %q", entry)
			}
			i++
			oldPath = entries[i]
		}

		kind, ok := statusKind(x, y)
		if !ok {
			continue
		}
		st := diffstage.FileStatus{Path: path, Kind: kind}
		if kind == diffstage.ChangeRenamed {
			st.OldPath = oldPath
		}
		files = append(files, st)
	}
	return files, nil
}

// statusKind maps the index (x) and worktree (y) status codes to the kind
// of the unstaged change. ok is false when nothing is left to stage.
func statusKind(x, y byte) (kind diffstage.ChangeKind, ok bool) {
	switch {
	case x == '?' && y == '?':
		return diffstage.ChangeNew, true
	case x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D'):
		return diffstage.ChangeConflicted, true
	case y == ' ':
		return 0, false
	case y == 'D':
		return diffstage.ChangeDeleted, true
	case y == 'A':
		return diffstage.ChangeNew, true
	case x == 'R':
		return diffstage.ChangeRenamed, true
	default:
		return diffstage.ChangeModified, true
	}
}
