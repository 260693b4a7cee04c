package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fwojciec/diffstage"
)

// Compile-time interface verification.
var _ diffstage.Repository = (*Repository)(nil)

// Repository runs git against a single working tree.
type Repository struct {
	Root   string
	Runner Runner
	Logger *slog.Logger
}

// NewRepository creates a Repository for the working tree at root.
func NewRepository(root, gitBin string, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Root:   root,
		Runner: NewExecRunner(gitBin, logger),
		Logger: logger,
	}
}

func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	return r.Runner.Run(ctx, r.Root, nil, args...)
}

// Status lists files with unstaged changes.
func (r *Repository) Status(ctx context.Context) ([]diffstage.FileStatus, error) {
	out, err := r.run(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	return parseStatus(out)
}

// RawDiff returns the working tree diff of the file against the index.
// Untracked files are diffed against /dev/null.
func (r *Repository) RawDiff(ctx context.Context, file diffstage.FileStatus) (string, error) {
	args := []string{"diff", "--no-ext-diff", "--no-color", "--src-prefix=a/", "--dst-prefix=b/"}
	if file.Kind == diffstage.ChangeNew && !r.tracked(ctx, file.Path) {
		args = append(args, "--no-index", "--", "/dev/null", file.Path)
		out, err := r.run(ctx, args...)
		// --no-index exits with 1 when the files differ.
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 {
			err = nil
		}
		return out, err
	}
	return r.run(ctx, append(args, "--", file.Path)...)
}

// tracked reports whether path has an index entry.
func (r *Repository) tracked(ctx context.Context, path string) bool {
	out, err := r.run(ctx, "ls-files", "--stage", "-z", "--", path)
	return err == nil && out != ""
}

// IndexContent returns the staged content of path, or nil when the path is
// not in the index.
func (r *Repository) IndexContent(ctx context.Context, path string) ([]byte, error) {
	out, err := r.run(ctx, "ls-files", "--stage", "-z", "--", path)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	// "<mode> <object> <stage>\t<path>\x00"
	fields := strings.Fields(strings.SplitN(out, "\t", 2)[0])
	if len(fields) != 3 {
		return nil, fmt.Errorf("unexpected ls-files output for %s", path)
	}
	if fields[2] != "0" {
		return nil, diffstage.ErrConflicted
	}
	blob, err := r.run(ctx, "cat-file", "blob", fields[1])
	if err != nil {
		return nil, err
	}
	return []byte(blob), nil
}

// ApplyPatch applies patch to the index only. Failures are returned as
// reported by git.
func (r *Repository) ApplyPatch(ctx context.Context, patch string) error {
	r.Logger.Debug("applying patch", "bytes", len(patch))
	_, err := r.Runner.Run(ctx, r.Root, strings.NewReader(patch), "apply", "--cached", "--whitespace=nowarn", "-")
	return err
}

// Add stages the whole file, including deletions.
func (r *Repository) Add(ctx context.Context, path string) error {
	_, err := r.run(ctx, "add", "--all", "--", path)
	return err
}

// TopLevel returns the absolute path of the working tree root.
func (r *Repository) TopLevel(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
