// Package lipgloss renders diffs, selections and patches for the terminal
// using the lipgloss library.
package lipgloss

import "github.com/charmbracelet/lipgloss"

// Palette holds the colors used by the printer.
type Palette struct {
	Added    lipgloss.Color
	Removed  lipgloss.Color
	Context  lipgloss.Color
	Header   lipgloss.Color
	Muted    lipgloss.Color
	Selected lipgloss.Color
}

// Theme is a named palette.
type Theme struct {
	name    string
	palette Palette
}

// Name returns the theme name.
func (t *Theme) Name() string { return t.name }

// Palette returns the theme colors.
func (t *Theme) Palette() Palette { return t.palette }

// DefaultTheme returns the theme used by the CLI.
func DefaultTheme() *Theme {
	return &Theme{
		name: "default",
		palette: Palette{
			Added:    lipgloss.Color("#a6e3a1"),
			Removed:  lipgloss.Color("#f38ba8"),
			Context:  lipgloss.Color("#cdd6f4"),
			Header:   lipgloss.Color("#89b4fa"),
			Muted:    lipgloss.Color("#6c7086"),
			Selected: lipgloss.Color("#f9e2af"),
		},
	}
}

// TestTheme returns a theme with distinct primary colors, so tests can
// assert on escape sequences.
func TestTheme() *Theme {
	return &Theme{
		name: "test",
		palette: Palette{
			Added:    lipgloss.Color("#00ff00"),
			Removed:  lipgloss.Color("#ff0000"),
			Context:  lipgloss.Color("#ffffff"),
			Header:   lipgloss.Color("#0000ff"),
			Muted:    lipgloss.Color("#808080"),
			Selected: lipgloss.Color("#ffff00"),
		},
	}
}

// styles are the palette turned into lipgloss styles for one renderer.
type styles struct {
	added    lipgloss.Style
	removed  lipgloss.Style
	context  lipgloss.Style
	header   lipgloss.Style
	file     lipgloss.Style
	muted    lipgloss.Style
	selected lipgloss.Style
}

func newStyles(p Palette, r *lipgloss.Renderer) styles {
	return styles{
		added:    r.NewStyle().Foreground(p.Added),
		removed:  r.NewStyle().Foreground(p.Removed),
		context:  r.NewStyle().Foreground(p.Context),
		header:   r.NewStyle().Foreground(p.Header),
		file:     r.NewStyle().Foreground(p.Header).Bold(true),
		muted:    r.NewStyle().Foreground(p.Muted),
		selected: r.NewStyle().Foreground(p.Selected).Bold(true),
	}
}
