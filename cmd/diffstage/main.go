// Command diffstage stages selected lines of working tree changes.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"

	"github.com/charmbracelet/x/term"
	"github.com/fwojciec/diffstage/fs"
	"github.com/fwojciec/diffstage/git"
	"github.com/fwojciec/diffstage/gitdiff"
	"github.com/fwojciec/diffstage/lipgloss"
	"github.com/fwojciec/diffstage/patch"
	"github.com/spf13/cobra"
)

// Config holds the values of the global flags.
type Config struct {
	Repo     string
	Git      string
	StateDir string
	Verbose  bool
}

// appBuilder creates the App once flags are parsed.
type appBuilder func(ctx context.Context, cfg Config, out, errOut io.Writer) (*App, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(newApp, os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newApp wires the git-backed collaborators.
func newApp(ctx context.Context, cfg Config, out, errOut io.Writer) (*App, error) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	repo := git.NewRepository(cfg.Repo, cfg.Git, logger)
	root, err := repo.TopLevel(ctx)
	if err != nil {
		return nil, fmt.Errorf("find working tree: %w", err)
	}
	repo.Root = root

	printer := lipgloss.NewPrinter(lipgloss.DefaultTheme(), nil)
	printer.Width = terminalWidth(out)

	return &App{
		Repo:        repo,
		Parser:      gitdiff.NewParser(),
		Synthesizer: patch.NewSynthesizer(),
		Verifier:    gitdiff.NewVerifier(),
		Store:       fs.NewSelectionStore(cfg.StateDir),
		Printer:     printer,
		Out:         out,
		Logger:      logger,
		Root:        root,
		Concurrency: runtime.NumCPU(),
	}, nil
}

// terminalWidth returns the width of w when it is a terminal, or zero.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(f.Fd()) {
		return 0
	}
	width, _, err := term.GetSize(f.Fd())
	if err != nil {
		return 0
	}
	return width
}

func newRootCmd(build appBuilder, out, errOut io.Writer) *cobra.Command {
	var (
		cfg Config
		app *App
	)

	root := &cobra.Command{
		Use:   "diffstage",
		Short: "Stage selected lines of working tree changes",
		Long: `Stage selected lines of working tree changes.

Lines are addressed by their global index, shown by "diffstage show".
Selections are kept between runs until the file is staged or reset.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			app, err = build(cmd.Context(), cfg, out, errOut)
			return err
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	defaultGit := os.Getenv("DIFFSTAGE_GIT")
	if defaultGit == "" {
		defaultGit = "git"
	}
	pf := root.PersistentFlags()
	pf.StringVar(&cfg.Repo, "repo", ".", "working tree to operate on")
	pf.StringVar(&cfg.Git, "git", defaultGit, "git binary (env DIFFSTAGE_GIT)")
	pf.StringVar(&cfg.StateDir, "state-dir", fs.DefaultStateDir(), "directory for stored selections")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every git invocation")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "List changed files and their selection state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return reportNoChanges(app.Status(cmd.Context()), out)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [path]...",
		Short: "Print diffs with line indices and selection marks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return reportNoChanges(app.Show(cmd.Context(), args), out)
		},
	}

	selectCmd := &cobra.Command{
		Use:   "select <path> <lines>...",
		Short: "Change which lines of a file are staged",
		Long: `Change which lines of a file are staged.

Lines are comma separated items applied in order:
  all, none   select or deselect every line
  3, 5-8      select lines
  -3, -5-8    deselect lines`,
		Example: "  diffstage select main.go none 2,4-6\n  diffstage select main.go -3",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := &SelectionSpec{}
			for _, a := range args[1:] {
				if err := spec.Set(a); err != nil {
					return err
				}
			}
			return app.Select(cmd.Context(), args[0], spec)
		},
	}
	// Deselection items start with a dash.
	selectCmd.Flags().SetInterspersed(false)

	var opts StageOptions
	lines := &SelectionSpec{}
	stageCmd := &cobra.Command{
		Use:   "stage [path]...",
		Short: "Stage the selected lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Lines = lines
			return reportNoChanges(app.Stage(cmd.Context(), args, opts), out)
		},
	}
	stageCmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "print the patches instead of applying them")
	stageCmd.Flags().BoolVar(&opts.WholeBinary, "whole-binary", false, "stage binary files whole")
	stageCmd.Flags().Var(lines, "lines", "lines to stage for this run, on top of the stored selection")

	resetCmd := &cobra.Command{
		Use:   "reset <path>...",
		Short: "Forget stored selections",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Reset(cmd.Context(), args)
		},
	}

	root.AddCommand(statusCmd, showCmd, selectCmd, stageCmd, resetCmd)
	return root
}

// reportNoChanges turns ErrNoChanges into a notice.
func reportNoChanges(err error, out io.Writer) error {
	if errors.Is(err, ErrNoChanges) {
		fmt.Fprintln(out, "nothing to stage")
		return nil
	}
	return err
}
