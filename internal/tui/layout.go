package tui

import "github.com/mmcdole/moviesearch/internal/tui/components"

// Vertical chrome: search box (3) + hint line (1) above, footer (1) below
const (
	SearchBarHeight = 4
	FooterHeight    = 1
)

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	m.Search.SetWidth(m.Width)
	m.help.Width = m.Width

	gridHeight := max(m.Height-SearchBarHeight-FooterHeight, components.CardHeight+components.BorderHeight)
	m.Grid.SetSize(m.Width, gridHeight)

	// Fewer columns on narrow terminals
	inner := m.Width - components.BorderWidth - components.HorizontalPadding
	m.Grid.SetColumns(max(min(m.columns, inner/components.MinCardWidth), 1))

	m.Modal.SetSize(m.Width, m.Height)
}
