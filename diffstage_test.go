package diffstage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/diffstage"
	"github.com/stretchr/testify/assert"
)

func TestFileDiff_Changes(t *testing.T) {
	t.Parallel()

	f := sampleFile()
	assert.Equal(t, 3, f.ChangeCount())
	assert.Equal(t, []diffstage.LineRef{
		{Hunk: 0, Line: 1},
		{Hunk: 0, Line: 2},
		{Hunk: 1, Line: 1},
	}, f.Changes())
	assert.True(t, f.Hunks[1].HasChanges())
}

func TestFileDiff_Path(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "new.go", (&diffstage.FileDiff{OldPath: "old.go", NewPath: "new.go"}).Path())
	assert.Equal(t, "gone.go", (&diffstage.FileDiff{OldPath: "gone.go"}).Path())
}

func TestChangeKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "modified", diffstage.ChangeModified.String())
	assert.Equal(t, "new", diffstage.ChangeNew.String())
	assert.Equal(t, "deleted", diffstage.ChangeDeleted.String())
	assert.Equal(t, "renamed", diffstage.ChangeRenamed.String())
	assert.Equal(t, "conflicted", diffstage.ChangeConflicted.String())
	assert.Equal(t, "ChangeKind(9)", diffstage.ChangeKind(9).String())
}

func TestMalformedDiffError(t *testing.T) {
	t.Parallel()

	var err error = &diffstage.MalformedDiffError{Line: 4, Text: "oops", Reason: "missing line marker"}
	wrapped := fmt.Errorf("parse a.go: %w", err)

	assert.True(t, errors.Is(wrapped, diffstage.ErrMalformedDiff))
	assert.Equal(t, `malformed diff: line 4: missing line marker: "oops"`, err.Error())
}

func TestFileDiff_Fingerprint(t *testing.T) {
	t.Parallel()

	a := sampleFile()
	b := sampleFile()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	// Context changes do not matter.
	b.Hunks[0].Lines[0].Content = "other"
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Hunks[1].Lines[1].Content = "changed"
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
