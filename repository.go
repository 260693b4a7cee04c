package diffstage

import "context"

// FileStatus is a changed file reported by the working tree status.
type FileStatus struct {
	Path    string
	OldPath string // Set for renames
	Kind    ChangeKind
}

// Repository runs the external versioning tool against a working tree.
type Repository interface {
	// Status lists files that differ between the index and the working tree.
	Status(ctx context.Context) ([]FileStatus, error)

	// RawDiff returns the unified diff of the file against the index.
	RawDiff(ctx context.Context, file FileStatus) (string, error)

	// IndexContent returns the content of path as recorded in the index.
	// New files return empty content.
	IndexContent(ctx context.Context, path string) ([]byte, error)

	// ApplyPatch applies patch to the index only.
	ApplyPatch(ctx context.Context, patch string) error

	// Add stages the whole file.
	Add(ctx context.Context, path string) error
}
