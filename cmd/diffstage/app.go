package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/fwojciec/diffstage"
	"github.com/fwojciec/diffstage/fs"
	"github.com/fwojciec/diffstage/lipgloss"
	"golang.org/x/sync/errgroup"
)

// ErrNoChanges is returned when the working tree has nothing to stage.
var ErrNoChanges = errors.New("no changes to stage")

// App holds the collaborators of every command.
type App struct {
	Repo        diffstage.Repository
	Parser      diffstage.Parser
	Synthesizer diffstage.Synthesizer
	Verifier    diffstage.Verifier
	Store       *fs.SelectionStore
	Printer     *lipgloss.Printer
	Out         io.Writer
	Logger      *slog.Logger

	// Root identifies the working tree in the selection store.
	Root string

	// Concurrency limits how many files are diffed at once.
	// Zero means no limit.
	Concurrency int
}

// StageOptions controls the stage command.
type StageOptions struct {
	DryRun      bool
	WholeBinary bool

	// Lines, when not empty, is applied on top of the stored selection
	// for this run only.
	Lines *SelectionSpec
}

// fileState is a changed file with its parsed diff and current selection.
type fileState struct {
	status diffstage.FileStatus
	file   *diffstage.FileDiff
	sel    *diffstage.Selection
}

// Status lists every changed file with its selection state.
func (a *App) Status(ctx context.Context) error {
	states, err := a.loadAll(ctx, nil)
	if err != nil {
		return err
	}

	entries := make([]lipgloss.StatusEntry, 0, len(states))
	for _, s := range states {
		entries = append(entries, lipgloss.StatusEntry{
			Path:      s.status.Path,
			OldPath:   s.status.OldPath,
			Kind:      s.status.Kind,
			Selection: s.sel.Type(s.file),
			Binary:    s.file.IsBinary,
			Changes:   s.file.ChangeCount(),
		})
	}
	return a.Printer.Status(a.Out, entries)
}

// Show prints the diff of each path with selection marks. Without paths it
// shows every changed file.
func (a *App) Show(ctx context.Context, paths []string) error {
	states, err := a.loadAll(ctx, paths)
	if err != nil {
		return err
	}
	for _, s := range states {
		if err := a.Printer.File(a.Out, s.file, s.sel); err != nil {
			return err
		}
	}
	return nil
}

// Select applies spec to the stored selection of path and prints the result.
func (a *App) Select(ctx context.Context, path string, spec *SelectionSpec) error {
	states, err := a.loadAll(ctx, []string{path})
	if err != nil {
		return err
	}
	s := states[0]
	if s.file.IsBinary {
		return fmt.Errorf("%s: %w", path, diffstage.ErrBinaryContent)
	}
	if s.status.Kind == diffstage.ChangeConflicted {
		return fmt.Errorf("%s: %w", path, diffstage.ErrConflicted)
	}

	if err := spec.Apply(s.sel, s.file.ChangeCount()); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	err = a.Store.Save(a.Root, path, &fs.StoredSelection{
		Selection:   s.sel,
		Fingerprint: s.file.Fingerprint(),
	})
	if err != nil {
		return fmt.Errorf("save selection: %w", err)
	}
	a.Logger.Debug("selection saved", "path", path, "mode", s.sel.Mode(), "overrides", len(s.sel.Overrides()))
	return a.Printer.File(a.Out, s.file, s.sel)
}

// Reset forgets the stored selections of paths.
func (a *App) Reset(_ context.Context, paths []string) error {
	for _, path := range paths {
		if err := a.Store.Delete(a.Root, path); err != nil {
			return fmt.Errorf("reset %s: %w", path, err)
		}
		fmt.Fprintf(a.Out, "reset %s\n", path)
	}
	return nil
}

// stageResult is the synthesized patch of one file, or the reason there is
// nothing to apply.
type stageResult struct {
	state *fileState
	sel   *diffstage.Selection
	patch string
	err   error
}

// Stage synthesizes a patch for the selected lines of each path, verifies
// it against the index content and applies it to the index. Without paths
// it stages every changed file.
//
// Patches are built concurrently but verified and applied one at a time,
// in path order. The first verification or apply failure stops the run.
func (a *App) Stage(ctx context.Context, paths []string, opts StageOptions) error {
	if opts.Lines != nil && !opts.Lines.Empty() && len(paths) != 1 {
		return errors.New("--lines needs exactly one path")
	}

	states, err := a.loadAll(ctx, paths)
	if err != nil {
		return err
	}

	results := make([]stageResult, len(states))
	g := new(errgroup.Group)
	for i, s := range states {
		g.Go(func() error {
			sel := s.sel
			if opts.Lines != nil && !opts.Lines.Empty() {
				sel = sel.Clone()
				if err := opts.Lines.Apply(sel, s.file.ChangeCount()); err != nil {
					return fmt.Errorf("%s: %w", s.status.Path, err)
				}
			}
			patch, err := a.Synthesizer.Synthesize(s.file, sel, s.status.Kind)
			switch {
			case err == nil,
				errors.Is(err, diffstage.ErrEmptySelection),
				errors.Is(err, diffstage.ErrBinaryContent),
				errors.Is(err, diffstage.ErrConflicted):
				results[i] = stageResult{state: s, sel: sel, patch: patch, err: err}
				return nil
			default:
				return fmt.Errorf("synthesize %s: %w", s.status.Path, err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		if err := a.apply(ctx, r, opts); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) apply(ctx context.Context, r stageResult, opts StageOptions) error {
	path := r.state.status.Path
	switch {
	case errors.Is(r.err, diffstage.ErrEmptySelection):
		fmt.Fprintf(a.Out, "skip %s: nothing selected\n", path)
		return nil
	case errors.Is(r.err, diffstage.ErrConflicted):
		fmt.Fprintf(a.Out, "skip %s: unresolved conflict\n", path)
		return nil
	case errors.Is(r.err, diffstage.ErrBinaryContent):
		if !opts.WholeBinary {
			fmt.Fprintf(a.Out, "skip %s: binary file, use --whole-binary to stage it whole\n", path)
			return nil
		}
		if opts.DryRun {
			fmt.Fprintf(a.Out, "would stage %s whole\n", path)
			return nil
		}
		if err := a.Repo.Add(ctx, path); err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
		return a.staged(path, "whole binary")
	}

	base, err := a.Repo.IndexContent(ctx, path)
	if err != nil {
		return fmt.Errorf("read index content of %s: %w", path, err)
	}
	if _, err := a.Verifier.Verify(r.patch, base); err != nil {
		a.Logger.Debug("patch rejected", "path", path, "patch", r.patch)
		return fmt.Errorf("verify %s: %w", path, err)
	}

	if opts.DryRun {
		return a.Printer.Patch(a.Out, r.patch)
	}
	if err := a.Repo.ApplyPatch(ctx, r.patch); err != nil {
		return fmt.Errorf("git apply %s: %w", path, err)
	}

	f := r.state.file
	selected := 0
	for i := range f.ChangeCount() {
		if r.sel.IsSelected(i) {
			selected++
		}
	}
	return a.staged(path, fmt.Sprintf("%d of %d lines", selected, f.ChangeCount()))
}

// staged reports a staged file and drops its selection, which no longer
// matches the remaining diff.
func (a *App) staged(path, detail string) error {
	if err := a.Store.Delete(a.Root, path); err != nil {
		return fmt.Errorf("reset %s: %w", path, err)
	}
	fmt.Fprintf(a.Out, "staged %s (%s)\n", path, detail)
	return nil
}

// loadAll loads the changed files matching paths, in status order. Without
// paths it loads every changed file. A path that has no changes is an error.
func (a *App) loadAll(ctx context.Context, paths []string) ([]*fileState, error) {
	statuses, err := a.Repo.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	if len(statuses) == 0 {
		return nil, ErrNoChanges
	}

	if len(paths) > 0 {
		var matched []diffstage.FileStatus
		for _, p := range paths {
			i := slices.IndexFunc(statuses, func(s diffstage.FileStatus) bool { return s.Path == p })
			if i < 0 {
				return nil, fmt.Errorf("%s: no changes", p)
			}
			matched = append(matched, statuses[i])
		}
		statuses = matched
	}

	states := make([]*fileState, len(statuses))
	g, ctx := errgroup.WithContext(ctx)
	if a.Concurrency > 0 {
		g.SetLimit(a.Concurrency)
	}
	for i, st := range statuses {
		g.Go(func() error {
			s, err := a.load(ctx, st)
			if err != nil {
				return err
			}
			states[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

// load fetches and parses the diff of one file and restores its selection.
func (a *App) load(ctx context.Context, st diffstage.FileStatus) (*fileState, error) {
	if st.Kind == diffstage.ChangeConflicted {
		return &fileState{
			status: st,
			file:   &diffstage.FileDiff{OldPath: st.Path, NewPath: st.Path, Kind: st.Kind},
			sel:    diffstage.NewSelection(diffstage.SelectNone),
		}, nil
	}

	raw, err := a.Repo.RawDiff(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("diff %s: %w", st.Path, err)
	}
	diff, err := a.Parser.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse diff of %s: %w", st.Path, err)
	}
	file, err := fileFor(diff, st, raw)
	if err != nil {
		return nil, err
	}

	sel, err := a.selection(st.Path, file)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug("file loaded", "path", st.Path, "kind", st.Kind, "hunks", len(file.Hunks), "changes", file.ChangeCount())
	return &fileState{status: st, file: file, sel: sel}, nil
}

// selection restores the stored selection for path. Files without one, or
// whose diff changed since it was saved, start with every line selected.
func (a *App) selection(path string, file *diffstage.FileDiff) (*diffstage.Selection, error) {
	stored, err := a.Store.Load(a.Root, path)
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	if stored == nil {
		return diffstage.NewSelection(diffstage.SelectAll), nil
	}
	if stored.Fingerprint != file.Fingerprint() {
		a.Logger.Warn("diff changed since lines were selected, selection reset", "path", path)
		return diffstage.NewSelection(diffstage.SelectAll), nil
	}
	return stored.Selection, nil
}

// fileFor picks the diff of st out of diff. An empty diff, as git prints
// for a file whose content matches the index, yields a file without hunks.
// A non-empty diff that does not describe st is an error, so the file is
// never silently treated as unchanged.
func fileFor(diff *diffstage.Diff, st diffstage.FileStatus, raw string) (*diffstage.FileDiff, error) {
	for i := range diff.Files {
		if diff.Files[i].Path() == st.Path {
			return &diff.Files[i], nil
		}
	}
	if strings.TrimSpace(raw) != "" {
		return nil, fmt.Errorf("diff of %s: %w: no entry for the file", st.Path, diffstage.ErrMalformedDiff)
	}
	f := &diffstage.FileDiff{OldPath: st.Path, NewPath: st.Path, Kind: st.Kind}
	switch st.Kind {
	case diffstage.ChangeNew:
		f.OldPath = ""
	case diffstage.ChangeDeleted:
		f.NewPath = ""
	case diffstage.ChangeRenamed:
		f.OldPath = st.OldPath
	}
	return f, nil
}
