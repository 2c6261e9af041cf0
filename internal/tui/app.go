package tui

import (
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/moviesearch/internal/discover"
	"github.com/mmcdole/moviesearch/internal/domain"
	"github.com/mmcdole/moviesearch/internal/search"
	"github.com/mmcdole/moviesearch/internal/service"
	"github.com/mmcdole/moviesearch/internal/tui/components"
	"github.com/mmcdole/moviesearch/internal/tui/styles"
)

// Focus is the component receiving keys
type Focus int

const (
	FocusSearch Focus = iota
	FocusGrid
)

const (
	tickInterval   = 100 * time.Millisecond
	statusDuration = 3 * time.Second
	maxSuggestions = 3
)

// Spinner frames for loading animation
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// RenderSpinner renders the spinner frame
func RenderSpinner(frame int) string {
	return styles.SpinnerStyle.Render(spinnerFrames[frame%len(spinnerFrames)])
}

// Options tunes the page
type Options struct {
	Columns    int
	PosterSize domain.ImageSize
	Logger     *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	ctrl   *discover.Controller
	svc    *service.MovieService
	logger *slog.Logger

	// UI components
	Search components.SearchBar
	Grid   components.Grid
	Modal  components.MovieModal
	help   help.Model

	focus      Focus
	showHelp   bool
	columns    int
	posterSize domain.ImageSize

	// Dimensions
	Width  int
	Height int
	Ready  bool

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int

	// key of the search a load-more was sent for, until it settles
	loadMoreKey string
}

// NewModel creates a new application model
func NewModel(ctrl *discover.Controller, svc *service.MovieService, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Columns <= 0 {
		opts.Columns = 3
	}
	if opts.PosterSize == "" {
		opts.PosterSize = domain.ImageSizeMedium
	}

	h := help.New()
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	m := Model{
		ctrl:       ctrl,
		svc:        svc,
		logger:     opts.Logger.With("component", "tui"),
		Search:     components.NewSearchBar(service.MinSearchLength),
		Grid:       components.NewGrid(opts.Columns),
		Modal:      components.NewMovieModal(),
		help:       h,
		focus:      FocusSearch,
		columns:    opts.Columns,
		posterSize: opts.PosterSize,
	}
	m.Search.Focus()
	m.refresh()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		WaitForCommitCmd(m.ctrl),
		m.fetchActive(),
		TickCmd(tickInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case QueryCommittedMsg:
		cmds := []tea.Cmd{WaitForCommitCmd(m.ctrl)}
		// A commit read before a clear or submit no longer matches the input
		if msg.Query != m.ctrl.LiveQuery() {
			m.logger.Debug("dropping stale commit", "query", msg.Query)
			return m, tea.Batch(cmds...)
		}
		if m.ctrl.Commit(msg.Query) {
			cmds = append(cmds, m.fetchActive())
		}
		m.refresh()
		return m, tea.Batch(cmds...)

	case ListingLoadedMsg:
		if msg.Err != nil {
			m.logger.Debug("listing failed", "key", msg.Key, "error", msg.Err)
		}
		m.refresh()
		return m, nil

	case PageLoadedMsg:
		if msg.Key == m.loadMoreKey {
			m.loadMoreKey = ""
		}
		m.refresh()
		if msg.Err != nil {
			m.logger.Warn("load more failed", "key", msg.Key, "error", msg.Err)
			return m, m.setStatus(service.MsgFetchMovies, true)
		}
		return m, nil

	case DetailsLoadedMsg:
		if m.Modal.MovieID() != msg.ID {
			return m, nil
		}
		if msg.Err != nil {
			m.logger.Warn("details failed", "movie_id", msg.ID, "error", msg.Err)
			m.Modal.SetError()
		} else {
			m.Modal.SetDetails(msg.Details)
		}
		return m, nil

	case TickMsg:
		m.SpinnerFrame++
		spin := spinnerFrames[m.SpinnerFrame%len(spinnerFrames)]
		m.Modal.SetSpinner(spin)
		m.refresh()
		return m, TickCmd(tickInterval)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case ErrMsg:
		m.logger.Error("command failed", "context", msg.Context, "error", msg.Err)
		return m, m.setStatus(msg.Error(), true)
	}

	return m, nil
}

// refresh pulls the current listing state into the components
func (m *Model) refresh() {
	m.Grid.SetSnapshot(m.ctrl.Snapshot())
	m.Search.SetDebouncing(m.ctrl.Debouncing(), spinnerFrames[m.SpinnerFrame%len(spinnerFrames)])
}

func (m *Model) updateSuggestions() {
	m.Search.SetSuggestions(search.Suggest(m.ctrl.Recent(), m.Search.Value(), maxSuggestions))
}

// fetchActive loads whichever listing the debounced query selects
func (m Model) fetchActive() tea.Cmd {
	if m.ctrl.ShowingSearch() {
		return FetchSearchCmd(m.ctrl.ActiveSearch())
	}
	return FetchPopularCmd(m.ctrl.Popular())
}

// loadMore requests the next page when one exists and none is in flight
func (m *Model) loadMore() tea.Cmd {
	if !m.ctrl.CanLoadMore() {
		return nil
	}
	q := m.ctrl.ActiveSearch()
	key := q.Key().String()
	if m.loadMoreKey == key {
		return nil
	}
	m.loadMoreKey = key
	return FetchNextPageCmd(q)
}

// openDetails shows the overlay for the selected card
func (m *Model) openDetails() tea.Cmd {
	movie, ok := m.Grid.Selected()
	if !ok {
		return nil
	}
	m.Modal.Open(movie, m.svc.ImageURL(movie.PosterPath, m.posterSize))
	m.Modal.SetSize(m.Width, m.Height)

	q := m.svc.Details(movie.ID)
	if s := q.State(); s.HasData && !q.IsStale() {
		m.Modal.SetDetails(s.Data)
		return nil
	}
	return FetchDetailsCmd(q, movie.ID)
}

func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return ClearStatusCmd(statusDuration)
}

func (m *Model) focusSearch() tea.Cmd {
	m.focus = FocusSearch
	m.Grid.SetFocused(false)
	return m.Search.Focus()
}

func (m *Model) focusGrid() {
	m.focus = FocusGrid
	m.Search.Blur()
	m.Grid.SetFocused(true)
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.Modal.IsVisible() {
		return lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.Modal.View())
	}

	if m.showHelp {
		return m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.Search.View(),
		m.Grid.View(),
		m.renderFooter(),
	)
}

func (m Model) renderFooter() string {
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	case m.ctrl.Phase() == discover.PhaseSearching:
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Searching...")
	}

	var right string
	if m.focus == FocusSearch {
		right = m.help.ShortHelpView(searchHelp{Keys}.ShortHelp())
	} else {
		right = m.help.ShortHelpView(gridHelp{Keys}.ShortHelp())
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderHelp() string {
	body := styles.ModalTitleStyle.Render("Keys") + "\n\n" +
		m.help.FullHelpView(gridHelp{Keys}.FullHelp()) + "\n\n" +
		styles.DimStyle.Render("In the search bar: enter searches now, tab completes a recent query, esc returns to results.") + "\n" +
		styles.DimStyle.Render("Press ? or esc to return...")

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Width(min(m.Width-4, 80)).Render(body))
}
