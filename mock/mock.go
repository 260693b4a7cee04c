// Package mock provides function-field implementations of the root
// interfaces for tests.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/diffstage"
)

var (
	_ diffstage.Repository  = (*Repository)(nil)
	_ diffstage.Parser      = (*Parser)(nil)
	_ diffstage.Synthesizer = (*Synthesizer)(nil)
	_ diffstage.Verifier    = (*Verifier)(nil)
)

// Repository is a mock implementation of diffstage.Repository.
type Repository struct {
	StatusFn       func(ctx context.Context) ([]diffstage.FileStatus, error)
	RawDiffFn      func(ctx context.Context, file diffstage.FileStatus) (string, error)
	IndexContentFn func(ctx context.Context, path string) ([]byte, error)
	ApplyPatchFn   func(ctx context.Context, patch string) error
	AddFn          func(ctx context.Context, path string) error
}

func (r *Repository) Status(ctx context.Context) ([]diffstage.FileStatus, error) {
	return r.StatusFn(ctx)
}

func (r *Repository) RawDiff(ctx context.Context, file diffstage.FileStatus) (string, error) {
	return r.RawDiffFn(ctx, file)
}

func (r *Repository) IndexContent(ctx context.Context, path string) ([]byte, error) {
	return r.IndexContentFn(ctx, path)
}

func (r *Repository) ApplyPatch(ctx context.Context, patch string) error {
	return r.ApplyPatchFn(ctx, patch)
}

func (r *Repository) Add(ctx context.Context, path string) error {
	return r.AddFn(ctx, path)
}

// Parser is a mock implementation of diffstage.Parser.
type Parser struct {
	ParseFn func(r io.Reader) (*diffstage.Diff, error)
}

func (p *Parser) Parse(r io.Reader) (*diffstage.Diff, error) {
	return p.ParseFn(r)
}

// Synthesizer is a mock implementation of diffstage.Synthesizer.
type Synthesizer struct {
	SynthesizeFn func(f *diffstage.FileDiff, sel *diffstage.Selection, kind diffstage.ChangeKind) (string, error)
}

func (s *Synthesizer) Synthesize(f *diffstage.FileDiff, sel *diffstage.Selection, kind diffstage.ChangeKind) (string, error) {
	return s.SynthesizeFn(f, sel, kind)
}

// Verifier is a mock implementation of diffstage.Verifier.
type Verifier struct {
	VerifyFn func(patch string, base []byte) ([]byte, error)
}

func (v *Verifier) Verify(patch string, base []byte) ([]byte, error) {
	return v.VerifyFn(patch, base)
}
