// Package fs stores per-file selections on disk so they survive between
// command invocations.
package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fwojciec/diffstage"
)

// DefaultStateDir returns the default state directory for diffstage.
// Uses XDG_STATE_HOME if set, otherwise falls back to ~/.local/state/diffstage.
func DefaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "diffstage")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "diffstage")
}

// StoredSelection is a selection together with the fingerprint of the diff
// it was made against.
type StoredSelection struct {
	Selection   *diffstage.Selection
	Fingerprint string
}

// record is the on-disk form of a StoredSelection.
type record struct {
	Root        string       `json:"root"`
	Path        string       `json:"path"`
	Mode        string       `json:"mode"`
	Overrides   map[int]bool `json:"overrides,omitempty"`
	Fingerprint string       `json:"fingerprint"`
}

// SelectionStore keeps one JSON file per working tree file under Dir.
type SelectionStore struct {
	Dir string
}

// NewSelectionStore creates a store rooted at dir.
func NewSelectionStore(dir string) *SelectionStore {
	return &SelectionStore{Dir: dir}
}

func (s *SelectionStore) file(root, path string) string {
	sum := sha256.Sum256([]byte(root + "\x00" + path))
	return filepath.Join(s.Dir, hex.EncodeToString(sum[:])+".json")
}

// Load returns the stored selection for path in the working tree at root,
// or nil if none was saved.
func (s *SelectionStore) Load(root, path string) (*StoredSelection, error) {
	data, err := os.ReadFile(s.file(root, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode selection for %s: %w", path, err)
	}

	var mode diffstage.SelectionMode
	switch rec.Mode {
	case "all":
		mode = diffstage.SelectAll
	case "none":
		mode = diffstage.SelectNone
	default:
		return nil, fmt.Errorf("decode selection for %s: unknown mode %q", path, rec.Mode)
	}
	sel := diffstage.NewSelection(mode)
	for i, selected := range rec.Overrides {
		sel.Set(i, selected)
	}
	return &StoredSelection{Selection: sel, Fingerprint: rec.Fingerprint}, nil
}

// Save writes the selection for path, replacing any previous one.
func (s *SelectionStore) Save(root, path string, stored *StoredSelection) error {
	rec := record{
		Root:        root,
		Path:        path,
		Mode:        stored.Selection.Mode().String(),
		Overrides:   stored.Selection.Overrides(),
		Fingerprint: stored.Fingerprint,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}

	// Write to a temporary file and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(s.Dir, "selection-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.file(root, path))
}

// Delete forgets the selection for path.
func (s *SelectionStore) Delete(root, path string) error {
	err := os.Remove(s.file(root, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
