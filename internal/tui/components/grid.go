package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviesearch/internal/discover"
	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/search"
	"github.com/mmcdole/moviesearch/internal/tui/styles"
)

// Panel texts
const (
	ErrorTitle   = "Oops! Something went wrong"
	EmptyTitle   = "No movies found"
	EmptyHint    = "Try searching for a different movie title."
	LoadMoreText = "Load More"
	LoadingText  = "Loading..."
)

// Layout constants for the grid
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Padding inside the border
	HorizontalPadding = 2

	// Heading line plus the "↑ more" indicator
	HeaderLines = 2

	// "↓ more" indicator plus the load-more line
	FooterLines = 2

	// Skeleton rows shown while the first page loads
	SkeletonRows = 2
)

// Grid shows the active listing as rows of movie cards
type Grid struct {
	movies []domain.Movie

	heading     string
	subheading  string
	isLoading   bool
	errMessage  string
	isEmpty     bool
	hasNextPage bool
	loadingMore bool

	// Selection
	columns     int
	cursor      int // index into the visible (filtered) list
	rowOffset   int
	visibleRows int

	// Dimensions
	width   int
	height  int
	focused bool

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	matches      []search.Match // nil when no filter query
}

// NewGrid creates a grid with the given number of card columns
func NewGrid(columns int) Grid {
	ti := textinput.New()
	ti.Placeholder = "filter loaded movies..."
	ti.Prompt = "f "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return Grid{
		columns:     max(columns, 1),
		filterInput: ti,
		visibleRows: 1,
	}
}

// SetSnapshot loads a new render state. The cursor survives when the
// listing only grew (another page was appended); anything else starts
// over at the first card.
func (g *Grid) SetSnapshot(snap discover.Snapshot) {
	sameListing := snap.Heading == g.heading &&
		len(snap.Movies) >= len(g.movies) &&
		(len(g.movies) == 0 || snap.Movies[0].ID == g.movies[0].ID)

	g.movies = snap.Movies
	g.heading = snap.Heading
	g.subheading = snap.Subheading
	g.isLoading = snap.IsLoading
	g.errMessage = ""
	if snap.ListingPhase == discover.PhaseError {
		g.errMessage = snap.ErrMessage
		if g.errMessage == "" {
			g.errMessage = discover.DefaultErrorMessage
		}
	}
	g.isEmpty = snap.ListingPhase == discover.PhaseEmpty
	g.hasNextPage = snap.HasNextPage
	g.loadingMore = snap.IsLoadingMore

	if !sameListing {
		g.cursor = 0
		g.rowOffset = 0
		g.clearFilter()
		return
	}
	if g.filterQuery != "" {
		g.matches = search.Filter(g.filterQuery, g.movies)
	}
	g.clampCursor()
}

// SetSize updates the component dimensions
func (g *Grid) SetSize(width, height int) {
	g.width = width
	g.height = height
	g.recalcVisibleRows()
}

// SetColumns changes the number of cards per row
func (g *Grid) SetColumns(columns int) {
	g.columns = max(columns, 1)
	g.ensureVisible()
}

func (g *Grid) recalcVisibleRows() {
	interior := g.height - BorderHeight - HeaderLines - FooterLines
	if g.filterActive {
		interior--
	}
	g.visibleRows = max(interior/CardHeight, 1)
	g.ensureVisible()
}

// SetFocused sets the focus state
func (g *Grid) SetFocused(focused bool) {
	g.focused = focused
}

// IsFocused returns the focus state
func (g Grid) IsFocused() bool {
	return g.focused
}

// Cursor returns the selected position in the visible list
func (g Grid) Cursor() int {
	return g.cursor
}

// Columns returns the cards per row
func (g Grid) Columns() int {
	return g.columns
}

// Len returns the number of visible cards
func (g Grid) Len() int {
	if g.matches != nil || g.filterQuery != "" {
		return len(g.matches)
	}
	return len(g.movies)
}

// IsEmpty returns true if there are no cards to show
func (g Grid) IsEmpty() bool {
	return g.Len() == 0
}

// Selected returns the movie under the cursor
func (g Grid) Selected() (domain.Movie, bool) {
	if g.cursor < 0 || g.cursor >= g.Len() {
		return domain.Movie{}, false
	}
	return g.movies[g.mapIndex(g.cursor)], true
}

// AtLastRow reports whether the cursor sits on the final row of an
// unfiltered listing, the point where the next page is requested
func (g Grid) AtLastRow() bool {
	if g.filterActive || len(g.movies) == 0 {
		return false
	}
	return g.cursor/g.columns == (len(g.movies)-1)/g.columns
}

// IsFiltering returns true if the local filter is shown
func (g Grid) IsFiltering() bool {
	return g.filterActive
}

// IsFilterTyping returns true if the filter input has focus
func (g Grid) IsFilterTyping() bool {
	return g.filterActive && g.filterInput.Focused()
}

// ToggleFilter opens the local filter
func (g *Grid) ToggleFilter() tea.Cmd {
	g.filterActive = true
	g.recalcVisibleRows()
	return g.filterInput.Focus()
}

// ClearFilter closes the local filter and shows every card
func (g *Grid) ClearFilter() {
	g.clearFilter()
}

func (g *Grid) clearFilter() {
	g.filterActive = false
	g.filterQuery = ""
	g.matches = nil
	g.filterInput.SetValue("")
	g.filterInput.Blur()
	g.recalcVisibleRows()
}

func (g *Grid) applyFilter() {
	g.filterQuery = strings.TrimSpace(g.filterInput.Value())
	if g.filterQuery == "" {
		g.matches = nil
	} else {
		g.matches = search.Filter(g.filterQuery, g.movies)
	}
	g.cursor = 0
	g.rowOffset = 0
}

// mapIndex maps a visible position to an index into movies
func (g Grid) mapIndex(i int) int {
	if g.filterQuery != "" && i < len(g.matches) {
		return g.matches[i].Index
	}
	return i
}

func (g Grid) matchedIndexes(i int) []int {
	if g.filterQuery != "" && i < len(g.matches) {
		return g.matches[i].MatchedIndexes
	}
	return nil
}

func (g *Grid) clampCursor() {
	n := g.Len()
	if n == 0 {
		g.cursor = 0
		g.rowOffset = 0
		return
	}
	g.cursor = min(max(g.cursor, 0), n-1)
	g.ensureVisible()
}

// ensureVisible scrolls so the cursor row is on screen
func (g *Grid) ensureVisible() {
	row := g.cursor / g.columns
	if row < g.rowOffset {
		g.rowOffset = row
	}
	if row >= g.rowOffset+g.visibleRows {
		g.rowOffset = row - g.visibleRows + 1
	}
}

// Update handles messages
func (g Grid) Update(msg tea.Msg) (Grid, tea.Cmd) {
	if !g.focused {
		return g, nil
	}

	// Typing into the filter
	if g.IsFilterTyping() {
		if k, ok := msg.(tea.KeyMsg); ok {
			switch k.String() {
			case "esc":
				g.clearFilter()
				return g, nil
			case "enter":
				g.filterInput.Blur()
				return g, nil
			case "backspace":
				if g.filterInput.Value() == "" {
					g.clearFilter()
					return g, nil
				}
			}
		}

		var cmd tea.Cmd
		g.filterInput, cmd = g.filterInput.Update(msg)
		g.applyFilter()
		return g, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}

	if g.filterActive {
		switch {
		case key.Matches(k, gridKeys.Escape):
			g.clearFilter()
			return g, nil
		case key.Matches(k, gridKeys.Filter):
			return g, g.filterInput.Focus()
		}
	}

	n := g.Len()
	if n == 0 {
		return g, nil
	}
	page := g.columns * g.visibleRows

	switch {
	case key.Matches(k, gridKeys.Left):
		if g.cursor > 0 {
			g.cursor--
		}
	case key.Matches(k, gridKeys.Right):
		if g.cursor < n-1 {
			g.cursor++
		}
	case key.Matches(k, gridKeys.Up):
		if g.cursor-g.columns >= 0 {
			g.cursor -= g.columns
		}
	case key.Matches(k, gridKeys.Down):
		switch {
		case g.cursor+g.columns < n:
			g.cursor += g.columns
		case g.cursor/g.columns < (n-1)/g.columns:
			// short last row
			g.cursor = n - 1
		}
	case key.Matches(k, gridKeys.Home):
		g.cursor = 0
	case key.Matches(k, gridKeys.End):
		g.cursor = n - 1
	case key.Matches(k, gridKeys.PageUp):
		g.cursor = max(g.cursor-page, 0)
	case key.Matches(k, gridKeys.PageDown):
		g.cursor = min(g.cursor+page, n-1)
	default:
		return g, nil
	}
	g.ensureVisible()
	return g, nil
}

// View renders the component
func (g Grid) View() string {
	style := styles.InactiveBorder
	if g.focused {
		style = styles.ActiveBorder
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(g.width-frameW, 1)).
		Height(max(g.height-frameH, 1)).
		Render(g.renderContent())
}

func (g Grid) contentWidth() int {
	return max(g.width-BorderWidth-HorizontalPadding, MinCardWidth)
}

func (g Grid) cardWidth() int {
	return max(g.contentWidth()/g.columns, MinCardWidth)
}

func (g Grid) renderContent() string {
	width := g.contentWidth()
	headingLine := g.renderHeading(width)

	var body string
	up, down := " ", " "
	switch {
	case g.errMessage != "" && len(g.movies) == 0:
		body = g.renderError(width)
	case g.isLoading && len(g.movies) == 0:
		body = g.renderSkeletons()
	case g.isEmpty:
		body = g.renderEmpty(width)
	case g.IsEmpty() && g.filterQuery != "":
		body = styles.DimStyle.Render("No matches")
	default:
		var more bool
		body, more = g.renderCards()
		if g.rowOffset > 0 {
			up = styles.DimStyle.Render("↑ more")
		}
		if more {
			down = styles.DimStyle.Render("↓ more")
		}
	}

	content := headingLine + "\n" + up + "\n" + body + "\n" + down + "\n" + g.renderLoadMore()
	if g.filterActive {
		content += "\n" + g.renderFilterBar()
	}
	return content
}

func (g Grid) renderHeading(width int) string {
	if g.heading == "" {
		return " "
	}
	line := styles.AccentStyle.Bold(true).Render(styles.Truncate(g.heading, width))
	if g.subheading != "" {
		line += " " + styles.DimStyle.Render(g.subheading)
	}
	return line
}

// renderCards renders the visible rows; more reports rows below
func (g Grid) renderCards() (string, bool) {
	n := g.Len()
	cw := g.cardWidth()
	totalRows := (n + g.columns - 1) / g.columns
	end := min(g.rowOffset+g.visibleRows, totalRows)

	rows := make([]string, 0, end-g.rowOffset)
	for r := g.rowOffset; r < end; r++ {
		var cards []string
		for c := 0; c < g.columns; c++ {
			i := r*g.columns + c
			if i >= n {
				break
			}
			m := g.movies[g.mapIndex(i)]
			cards = append(cards, renderCard(m, g.matchedIndexes(i), g.focused && i == g.cursor, cw))
		}
		rows = append(rows, joinRow(cards))
	}
	return strings.Join(rows, "\n"), end < totalRows
}

func (g Grid) renderSkeletons() string {
	cw := g.cardWidth()
	rows := make([]string, 0, SkeletonRows)
	for r := 0; r < min(SkeletonRows, g.visibleRows); r++ {
		cards := make([]string, g.columns)
		for c := range cards {
			cards[c] = renderSkeleton(cw)
		}
		rows = append(rows, joinRow(cards))
	}
	return strings.Join(rows, "\n")
}

func (g Grid) renderError(width int) string {
	msg := strings.Join(wrapLines(g.errMessage, width, 0), "\n")
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.ErrorTitleStyle.Render(ErrorTitle),
		styles.ErrorStyle.Render(msg),
	)
}

func (g Grid) renderEmpty(width int) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render(EmptyTitle),
		styles.DimStyle.Render(styles.Truncate(EmptyHint, width)),
	)
}

// renderLoadMore renders the footer button, present only while more
// pages exist
func (g Grid) renderLoadMore() string {
	if !g.hasNextPage || g.filterActive {
		return " "
	}
	if g.loadingMore {
		return styles.DimBadgeStyle.Render(LoadingText)
	}
	return styles.ButtonStyle.Render(LoadMoreText) + styles.DimStyle.Render("  m")
}

func (g Grid) renderFilterBar() string {
	input := g.filterInput.View()
	if g.filterQuery == "" {
		return input
	}
	return input + styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", g.Len(), len(g.movies)))
}
