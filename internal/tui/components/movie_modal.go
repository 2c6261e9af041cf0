package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/tui/styles"
)

// Detail overlay texts
const (
	DetailsErrorText = "Failed to load movie details"
	NoOverviewText   = "No overview available."
	NoPosterText     = "none"
)

// Modal layout
const (
	ModalMaxWidth  = 90
	ModalFrameW    = 6 // border + horizontal padding
	ModalFrameH    = 4 // border + vertical padding
	ModalScrollInd = 2
)

// modalContent holds the three-zone layout
type modalContent struct {
	header string // fixed top
	body   string // scrollable middle
	footer string // fixed bottom
}

// MovieModal is the detail overlay for one movie. It shows the summary
// it was opened with until the full record arrives.
type MovieModal struct {
	visible   bool
	movie     domain.Movie
	details   *domain.MovieDetails
	loading   bool
	errMsg    string
	posterURL string
	spinner   string

	width  int
	height int
	offset int
}

// NewMovieModal creates a hidden detail overlay
func NewMovieModal() MovieModal {
	return MovieModal{}
}

// Open shows the overlay for movie and starts in the loading state
func (m *MovieModal) Open(movie domain.Movie, posterURL string) {
	m.visible = true
	m.movie = movie
	m.details = nil
	m.loading = true
	m.errMsg = ""
	m.posterURL = posterURL
	m.offset = 0
}

// Close hides the overlay
func (m *MovieModal) Close() {
	m.visible = false
	m.details = nil
	m.loading = false
	m.errMsg = ""
}

// IsVisible returns whether the overlay is shown
func (m MovieModal) IsVisible() bool {
	return m.visible
}

// MovieID returns the ID of the movie shown, or 0 when hidden
func (m MovieModal) MovieID() int {
	if !m.visible {
		return 0
	}
	return m.movie.ID
}

// IsLoading reports whether the full record is still on its way
func (m MovieModal) IsLoading() bool {
	return m.visible && m.loading
}

// SetDetails merges the full record with the opening summary
func (m *MovieModal) SetDetails(d domain.MovieDetails) {
	merged := d.MergeSummary(m.movie)
	m.details = &merged
	m.loading = false
	m.errMsg = ""
}

// SetError switches the body to the failure text
func (m *MovieModal) SetError() {
	m.loading = false
	m.errMsg = DetailsErrorText
}

// SetSpinner sets the current spinner frame
func (m *MovieModal) SetSpinner(frame string) {
	m.spinner = frame
}

// SetSize sets the screen size the overlay is centered in
func (m *MovieModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// HandleKey processes a key press and returns (handled, closed). Every
// key is consumed while the overlay is visible.
func (m *MovieModal) HandleKey(msg tea.KeyMsg) (handled bool, closed bool) {
	if !m.visible {
		return false, false
	}

	switch {
	case key.Matches(msg, modalKeys.Close):
		m.Close()
		return true, true
	case key.Matches(msg, modalKeys.Down):
		m.offset++
	case key.Matches(msg, modalKeys.Up):
		if m.offset > 0 {
			m.offset--
		}
	}
	return true, false
}

func (m MovieModal) contentWidth() int {
	w := min(m.width-4, ModalMaxWidth) - ModalFrameW
	return max(w, 20)
}

func (m MovieModal) maxVisible() int {
	return max(m.height-4-ModalFrameH-ModalScrollInd, 3)
}

// View renders the overlay box; the caller centers it on screen
func (m MovieModal) View() string {
	if !m.visible {
		return ""
	}

	width := m.contentWidth()
	content := m.render(width)

	headerLines := splitLines(content.header)
	footerLines := splitLines(content.footer)
	bodyLines := splitLines(content.body)

	available := max(m.maxVisible()-len(headerLines)-len(footerLines), 1)
	maxOffset := max(len(bodyLines)-available, 0)
	offset := min(m.offset, maxOffset)
	end := min(offset+available, len(bodyLines))

	up, down := " ", " "
	if offset > 0 {
		up = styles.DimStyle.Render("↑ more")
	}
	if end < len(bodyLines) {
		down = styles.DimStyle.Render("↓ more")
	}

	var parts []string
	parts = append(parts, headerLines...)
	parts = append(parts, up)
	parts = append(parts, bodyLines[offset:end]...)
	parts = append(parts, down)
	parts = append(parts, footerLines...)

	return styles.ModalStyle.Width(width + ModalFrameW - 2).Render(strings.Join(parts, "\n"))
}

func (m MovieModal) render(width int) modalContent {
	movie := m.movie
	if m.details != nil {
		movie = m.details.Movie
	}
	return modalContent{
		header: m.renderHeader(movie, width),
		body:   m.renderBody(movie, width),
		footer: m.renderFooter(width),
	}
}

func (m MovieModal) renderHeader(movie domain.Movie, width int) string {
	var b strings.Builder

	b.WriteString(styles.ModalTitleStyle.Render(styles.Truncate(movie.Title, width)))
	b.WriteString("\n")

	if m.details != nil && m.details.Tagline != "" {
		tagline := strings.Join(wrapLines(fmt.Sprintf("%q", m.details.Tagline), width, 2), "\n")
		b.WriteString(styles.TaglineStyle.Render(tagline))
		b.WriteString("\n")
	}

	// Year · Runtime · Rating
	meta := []string{movie.ReleaseYear()}
	if m.details != nil && m.details.Runtime > 0 {
		meta = append(meta, m.details.FormattedRuntime())
	}
	line := styles.DimStyle.Render(strings.Join(meta, " · "))
	if movie.HasRating() {
		line += styles.DimStyle.Render(" · ") +
			styles.RatingStyle(movie.VoteAverage).Render("★ "+movie.FormattedRating()+"/10")
	}
	b.WriteString(line)

	if m.details != nil && len(m.details.Genres) > 0 {
		b.WriteString("\n")
		badges := make([]string, len(m.details.Genres))
		for i, g := range m.details.GenreNames() {
			badges[i] = styles.BadgeStyle.Render(g)
		}
		b.WriteString(strings.Join(badges, " "))
	}

	return b.String()
}

func (m MovieModal) renderBody(movie domain.Movie, width int) string {
	var sections []string

	switch {
	case m.errMsg != "":
		sections = append(sections, styles.ErrorStyle.Render(m.errMsg))
	case m.loading:
		sections = append(sections, styles.SpinnerStyle.Render(m.spinner)+" "+styles.DimStyle.Render("Loading details..."))
	}

	overview := NoOverviewText
	if movie.Overview != "" {
		overview = strings.Join(wrapLines(movie.Overview, width, 0), "\n")
	}
	sections = append(sections,
		styles.SectionTitleStyle.Render("Overview")+"\n"+styles.SubtitleStyle.Render(overview))

	if d := m.details; d != nil {
		var money []string
		if d.HasBudget() {
			money = append(money, styles.DimStyle.Render("Budget   ")+domain.FormatMoney(d.Budget))
		}
		if d.HasRevenue() {
			money = append(money, styles.DimStyle.Render("Revenue  ")+domain.FormatMoney(d.Revenue))
		}
		if len(money) > 0 {
			sections = append(sections, strings.Join(money, "\n"))
		}

		if names := d.CompanyNames(); names != "" {
			sections = append(sections,
				styles.SectionTitleStyle.Render("Production Companies")+"\n"+
					styles.SubtitleStyle.Render(strings.Join(wrapLines(names, width, 0), "\n")))
		}
	}

	return strings.Join(sections, "\n\n")
}

func (m MovieModal) renderFooter(width int) string {
	sep := styles.DimStyle.Render(strings.Repeat("─", width))
	posterText := NoPosterText
	if m.movie.HasPoster() {
		posterText = m.posterURL
	}
	poster := styles.DimStyle.Render(styles.Truncate("Poster  "+posterText, width))
	hint := styles.HelpKeyStyle.Render("esc") + styles.HelpDescStyle.Render(" close  ") +
		styles.HelpKeyStyle.Render("j/k") + styles.HelpDescStyle.Render(" scroll")
	return sep + "\n" + poster + "\n" + hint
}

// splitLines splits a string into lines, returning nil for empty string
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
