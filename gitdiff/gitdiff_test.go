package gitdiff_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/diffstage"
	"github.com/fwojciec/diffstage/gitdiff"
	"github.com/fwojciec/diffstage/patch"
	"github.com/fwojciec/diffstage/unified"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiFile = `diff --git a/hello.go b/hello.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/hello.go
@@ -0,0 +1,3 @@
+package main
+
+func hello() {}
diff --git a/src/auth.go b/src/auth.go
index 1111111..2222222 100644
--- a/src/auth.go
+++ b/src/auth.go
@@ -1,3 +1,4 @@ package auth
 package auth
 import "errors"
+func login() {}
 func logout() {}
@@ -10,2 +11,2 @@ func logout() {}
 var x = 1
-var y = 2
+var y = 3
\ No newline at end of file
`

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("converts files and fragments", func(t *testing.T) {
		t.Parallel()

		diff, err := gitdiff.NewParser().Parse(strings.NewReader(multiFile))
		require.NoError(t, err)
		require.Len(t, diff.Files, 2)

		added := diff.Files[0]
		assert.Equal(t, diffstage.ChangeNew, added.Kind)
		assert.Equal(t, "hello.go", added.NewPath)
		require.Len(t, added.Hunks, 1)
		assert.Equal(t, diffstage.Line{Type: diffstage.LineAdded, Content: "package main", NewLineNum: 1}, added.Hunks[0].Lines[0])

		modified := diff.Files[1]
		assert.Equal(t, diffstage.ChangeModified, modified.Kind)
		require.Len(t, modified.Hunks, 2)
		last := modified.Hunks[1].Lines[2]
		assert.Equal(t, diffstage.LineAdded, last.Type)
		assert.Equal(t, "var y = 3", last.Content)
		assert.True(t, last.NoNewline)
	})

	t.Run("agrees with the unified parser", func(t *testing.T) {
		t.Parallel()

		want, err := unified.NewParser().Parse(strings.NewReader(multiFile))
		require.NoError(t, err)
		got, err := gitdiff.NewParser().Parse(strings.NewReader(multiFile))
		require.NoError(t, err)

		require.Len(t, got.Files, len(want.Files))
		for i := range want.Files {
			assert.Equal(t, want.Files[i].Kind, got.Files[i].Kind)
			assert.Equal(t, want.Files[i].Path(), got.Files[i].Path())
			assert.Equal(t, want.Files[i].Hunks, got.Files[i].Hunks)
		}
	})
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	// synthesize parses raw and returns the patch for the selected indices.
	synthesize := func(t *testing.T, raw string, kind diffstage.ChangeKind, indices ...int) string {
		t.Helper()
		diff, err := unified.NewParser().Parse(strings.NewReader(raw))
		require.NoError(t, err)
		require.Len(t, diff.Files, 1)

		sel := diffstage.NewSelection(diffstage.SelectNone)
		for _, i := range indices {
			sel.Set(i, true)
		}
		text, err := patch.NewSynthesizer().Synthesize(&diff.Files[0], sel, kind)
		require.NoError(t, err)
		return text
	}

	const modified = `diff --git a/f.txt b/f.txt
--- a/f.txt
+++ b/f.txt
@@ -1,4 +1,4 @@
 a
-b
-c
+C
 d
`

	t.Run("applies a partial modification", func(t *testing.T) {
		t.Parallel()

		text := synthesize(t, modified, diffstage.ChangeModified, 1, 2)
		got, err := gitdiff.NewVerifier().Verify(text, []byte("a\nb\nc\nd\n"))
		require.NoError(t, err)
		assert.Equal(t, "a\nb\nC\nd\n", string(got))
	})

	t.Run("applies a partial new file", func(t *testing.T) {
		t.Parallel()

		raw := `diff --git a/n.txt b/n.txt
new file mode 100644
--- /dev/null
+++ b/n.txt
@@ -0,0 +1,3 @@
+one
+two
+three
\ No newline at end of file
`
		text := synthesize(t, raw, diffstage.ChangeNew, 0, 1)
		got, err := gitdiff.NewVerifier().Verify(text, nil)
		require.NoError(t, err)
		assert.Equal(t, "one\ntwo", string(got))
	})

	t.Run("applies a partial deletion", func(t *testing.T) {
		t.Parallel()

		raw := `diff --git a/d.txt b/d.txt
deleted file mode 100644
--- a/d.txt
+++ /dev/null
@@ -1,3 +0,0 @@
-one
-two
-three
`
		text := synthesize(t, raw, diffstage.ChangeDeleted, 1)
		got, err := gitdiff.NewVerifier().Verify(text, []byte("one\ntwo\nthree\n"))
		require.NoError(t, err)
		assert.Equal(t, "one\nthree\n", string(got))
	})

	t.Run("applies partial changes at a file end without newline", func(t *testing.T) {
		t.Parallel()

		raw := `diff --git a/f.txt b/f.txt
--- a/f.txt
+++ b/f.txt
@@ -1,2 +1,3 @@
 a
-b
\ No newline at end of file
+c
+d
\ No newline at end of file
`
		base := []byte("a\nb")
		tests := []struct {
			name    string
			indices []int
			want    string
		}{
			{name: "everything", indices: []int{0, 1, 2}, want: "a\nc\nd"},
			{name: "without last line", indices: []int{0, 1}, want: "a\nc"},
			{name: "only last line", indices: []int{2}, want: "a\nb\nd"},
			{name: "only removal", indices: []int{0}, want: "a"},
		}
		for _, tt := range tests {
			text := synthesize(t, raw, diffstage.ChangeModified, tt.indices...)
			got, err := gitdiff.NewVerifier().Verify(text, base)
			require.NoError(t, err, tt.name)
			assert.Equal(t, tt.want, string(got), tt.name)
		}
	})

	t.Run("rejects a patch that does not match the base", func(t *testing.T) {
		t.Parallel()

		text := synthesize(t, modified, diffstage.ChangeModified, 1, 2)
		_, err := gitdiff.NewVerifier().Verify(text, []byte("x\ny\nz\n"))
		assert.ErrorIs(t, err, diffstage.ErrPatchRejected)
	})

	t.Run("rejects patches for several files", func(t *testing.T) {
		t.Parallel()

		_, err := gitdiff.NewVerifier().Verify(multiFile, nil)
		assert.ErrorIs(t, err, diffstage.ErrPatchRejected)
	})
}
