package git

import (
	"testing"

	"github.com/fwojciec/diffstage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	t.Run("maps status codes to change kinds", func(t *testing.T) {
		t.Parallel()

		out := " M main.go\x00?? notes.txt\x00 D old.go\x00RM new.go\x00orig.go\x00UU merge.go\x00M  staged.go\x00AM added.go\x00 A intent.go\x00"
		files, err := parseStatus(out)
		require.NoError(t, err)
		assert.Equal(t, []diffstage.FileStatus{
			{Path: "main.go", Kind: diffstage.ChangeModified},
			{Path: "notes.txt", Kind: diffstage.ChangeNew},
			{Path: "old.go", Kind: diffstage.ChangeDeleted},
			{Path: "new.go", OldPath: "orig.go", Kind: diffstage.ChangeRenamed},
			{Path: "merge.go", Kind: diffstage.ChangeConflicted},
			{Path: "added.go", Kind: diffstage.ChangeModified},
			{Path: "intent.go", Kind: diffstage.ChangeNew},
		}, files)
	})

	t.Run("keeps spaces in paths", func(t *testing.T) {
		t.Parallel()

		files, err := parseStatus(" M dir/my file.txt\x00")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "dir/my file.txt", files[0].Path)
	})

	t.Run("skips fully staged renames with their source", func(t *testing.T) {
		t.Parallel()

		files, err := parseStatus("R  b.go\x00a.go\x00 M c.go\x00")
		require.NoError(t, err)
		assert.Equal(t, []diffstage.FileStatus{{Path: "c.go", Kind: diffstage.ChangeModified}}, files)
	})

	t.Run("returns nothing for clean tree", func(t *testing.T) {
		t.Parallel()

		files, err := parseStatus("")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()

		_, err := parseStatus("garbage\x00")
		assert.Error(t, err)
	})
}

func TestSanitizeArgs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "apply", sanitizeArgs([]string{"apply", "--cached", "-"}))
	assert.Equal(t, "cat-file blob", sanitizeArgs([]string{"cat-file", "blob", "e69de29"}))
	assert.Equal(t, "<redacted>", sanitizeArgs([]string{"/tmp/secret"}))
	assert.Equal(t, "<no-args>", sanitizeArgs(nil))
}

func TestRedactTokens(t *testing.T) {
	t.Parallel()

	got := redactTokens("fatal: https://user:pw@example.com/repo token=abc123")
	assert.Equal(t, "fatal: https://<redacted>@example.com/repo token=<redacted>", got)
}
