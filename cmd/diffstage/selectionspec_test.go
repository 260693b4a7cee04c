package main_test

import (
	"testing"

	"github.com/fwojciec/diffstage"
	main "github.com/fwojciec/diffstage/cmd/diffstage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionSpec_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		start    diffstage.SelectionMode
		items    []string
		wantMode diffstage.SelectionMode
		selected []int
		excluded []int
	}{
		{
			name:     "single indices and ranges",
			start:    diffstage.SelectNone,
			items:    []string{"1,3-5"},
			wantMode: diffstage.SelectNone,
			selected: []int{1, 3, 4, 5},
			excluded: []int{0, 2, 6},
		},
		{
			name:     "deselect from all",
			start:    diffstage.SelectAll,
			items:    []string{"-2", "-4-5"},
			wantMode: diffstage.SelectAll,
			selected: []int{0, 1, 3, 6},
			excluded: []int{2, 4, 5},
		},
		{
			name:     "mode resets earlier items",
			start:    diffstage.SelectAll,
			items:    []string{"-1,none,+2"},
			wantMode: diffstage.SelectNone,
			selected: []int{2},
			excluded: []int{0, 1, 3},
		},
		{
			name:     "empty items are ignored",
			start:    diffstage.SelectNone,
			items:    []string{" 0 ,, all"},
			wantMode: diffstage.SelectAll,
			selected: []int{0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec := &main.SelectionSpec{}
			for _, item := range tt.items {
				require.NoError(t, spec.Set(item))
			}
			sel := diffstage.NewSelection(tt.start)
			require.NoError(t, spec.Apply(sel, 7))

			assert.Equal(t, tt.wantMode, sel.Mode())
			for _, i := range tt.selected {
				assert.True(t, sel.IsSelected(i), "line %d", i)
			}
			for _, i := range tt.excluded {
				assert.False(t, sel.IsSelected(i), "line %d", i)
			}
		})
	}
}

func TestSelectionSpec_Set(t *testing.T) {
	t.Parallel()

	t.Run("rejects malformed items", func(t *testing.T) {
		t.Parallel()

		for _, item := range []string{"x", "-", "3-1", "--3", "1-", "-1-x", "some"} {
			spec := &main.SelectionSpec{}
			assert.Error(t, spec.Set(item), item)
			assert.True(t, spec.Empty(), item)
		}
	})

	t.Run("keeps items for display", func(t *testing.T) {
		t.Parallel()

		spec := &main.SelectionSpec{}
		require.NoError(t, spec.Set("none, 1"))
		require.NoError(t, spec.Set("-3"))
		assert.Equal(t, "none,1,-3", spec.String())
		assert.Equal(t, "lines", spec.Type())
		assert.False(t, spec.Empty())
	})
}

func TestSelectionSpec_Apply_RejectsLinesPastFileEnd(t *testing.T) {
	t.Parallel()

	for _, items := range []string{"3", "0-2147483647", "1,-2-3", "none,5"} {
		spec := &main.SelectionSpec{}
		require.NoError(t, spec.Set(items))

		sel := diffstage.NewSelection(diffstage.SelectAll)
		err := spec.Apply(sel, 3)
		require.Error(t, err, items)
		assert.Contains(t, err.Error(), "file has 3 changed lines", items)
		assert.Empty(t, sel.Overrides(), "nothing applied for %q", items)
		assert.Equal(t, diffstage.SelectAll, sel.Mode(), items)
	}
}
