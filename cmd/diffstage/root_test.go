package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	lg "github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/diffstage"
	"github.com/fwojciec/diffstage/fs"
	"github.com/fwojciec/diffstage/lipgloss"
	"github.com/fwojciec/diffstage/mock"
	"github.com/fwojciec/diffstage/patch"
	"github.com/fwojciec/diffstage/unified"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rootDiff = `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,2 +1,2 @@
-x
-y
+X
+Y
`

// execute runs the command line args against an App backed by a mock
// repository and returns the App, the captured config and stdout.
func execute(t *testing.T, args ...string) (*App, Config, string, error) {
	t.Helper()

	var (
		app *App
		got Config
	)
	store := fs.NewSelectionStore(t.TempDir())
	build := func(_ context.Context, cfg Config, out, _ io.Writer) (*App, error) {
		got = cfg
		app = &App{
			Repo: &mock.Repository{
				StatusFn: func(context.Context) ([]diffstage.FileStatus, error) {
					return []diffstage.FileStatus{{Path: "a.txt"}}, nil
				},
				RawDiffFn: func(context.Context, diffstage.FileStatus) (string, error) {
					return rootDiff, nil
				},
			},
			Parser:      unified.NewParser(),
			Synthesizer: patch.NewSynthesizer(),
			Verifier: &mock.Verifier{VerifyFn: func(string, []byte) ([]byte, error) {
				return nil, nil
			}},
			Store:   store,
			Printer: lipgloss.NewPrinter(lipgloss.TestTheme(), lg.NewRenderer(nil, termenv.WithProfile(termenv.Ascii))),
			Out:     out,
			Logger:  slog.New(slog.DiscardHandler),
			Root:    "/repo",
		}
		return app, nil
	}

	var out bytes.Buffer
	cmd := newRootCmd(build, &out, io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return app, got, out.String(), err
}

func TestRootCmd_PassesGlobalFlags(t *testing.T) {
	t.Parallel()

	_, cfg, _, err := execute(t, "--repo", "/work", "--state-dir", "/state", "-v", "status")
	require.NoError(t, err)
	assert.Equal(t, "/work", cfg.Repo)
	assert.Equal(t, "/state", cfg.StateDir)
	assert.True(t, cfg.Verbose)
}

func TestRootCmd_GitFromEnvironment(t *testing.T) {
	t.Setenv("DIFFSTAGE_GIT", "/opt/git/bin/git")

	_, cfg, _, err := execute(t, "status")
	require.NoError(t, err)
	assert.Equal(t, "/opt/git/bin/git", cfg.Git)
}

func TestRootCmd_SelectAcceptsDeselection(t *testing.T) {
	t.Parallel()

	app, _, out, err := execute(t, "select", "a.txt", "-1", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] 1 -y")

	stored, err := app.Store.Load("/repo", "a.txt")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, diffstage.SelectAll, stored.Selection.Mode())
	assert.Equal(t, map[int]bool{1: false, 3: true}, stored.Selection.Overrides())
}

func TestRootCmd_SelectRejectsBadSpec(t *testing.T) {
	t.Parallel()

	_, _, _, err := execute(t, "select", "a.txt", "2-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid selection "2-1"`)
}

func TestRootCmd_StageDryRunWithLines(t *testing.T) {
	t.Parallel()

	_, _, out, err := execute(t, "stage", "--dry-run", "--lines=none,0,2", "a.txt")
	require.NoError(t, err)

	want := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -1,2 +1,2 @@
-x
 y
+X
`
	assert.Equal(t, want, out)
}

func TestRootCmd_ResetNeedsPath(t *testing.T) {
	t.Parallel()

	_, _, _, err := execute(t, "reset")
	assert.Error(t, err)
}

func TestTerminalWidth_ZeroWhenNotATerminal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, terminalWidth(&bytes.Buffer{}))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, 0, terminalWidth(f))
}
