package components

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/moviesearch/internal/tui/styles"
)

// MinQueryHint is shown while the input is too short to search
const MinQueryHint = "type at least 4 characters"

// SearchBar is the query input at the top of the page
type SearchBar struct {
	input       textinput.Model
	suggestions []string
	minLen      int // searches need more than this many runes
	debouncing  bool
	spinner     string
	width       int
}

// NewSearchBar creates a search bar; queries need more than minLen
// characters before they search
func NewSearchBar(minLen int) SearchBar {
	ti := textinput.New()
	ti.Placeholder = "Search for a movie..."
	ti.CharLimit = 100
	ti.Prompt = "🔍 "
	ti.PromptStyle = styles.SearchPromptStyle
	ti.TextStyle = styles.SearchTextStyle
	ti.PlaceholderStyle = styles.DimStyle

	return SearchBar{
		input:  ti,
		minLen: minLen,
	}
}

// Focus gives the input the cursor
func (s *SearchBar) Focus() tea.Cmd {
	return s.input.Focus()
}

// Blur removes the cursor
func (s *SearchBar) Blur() {
	s.input.Blur()
}

// Focused reports whether the input has the cursor
func (s SearchBar) Focused() bool {
	return s.input.Focused()
}

// Value returns the raw input
func (s SearchBar) Value() string {
	return s.input.Value()
}

// SetValue replaces the input and moves the cursor to the end
func (s *SearchBar) SetValue(v string) {
	s.input.SetValue(v)
	s.input.CursorEnd()
}

// SetSuggestions sets recent queries offered for completion
func (s *SearchBar) SetSuggestions(suggestions []string) {
	s.suggestions = suggestions
}

// Suggestions returns the offered completions
func (s SearchBar) Suggestions() []string {
	return s.suggestions
}

// SetDebouncing shows the pending indicator next to the input
func (s *SearchBar) SetDebouncing(debouncing bool, spinner string) {
	s.debouncing = debouncing
	s.spinner = spinner
}

// SetWidth updates the component width
func (s *SearchBar) SetWidth(width int) {
	s.width = width
	s.input.Width = max(width-8, 10)
}

// Complete replaces the input with the best suggestion. It reports
// whether anything was completed.
func (s *SearchBar) Complete() bool {
	if len(s.suggestions) == 0 {
		return false
	}
	s.SetValue(s.suggestions[0])
	s.suggestions = nil
	return true
}

// TooShort reports whether the input has text but not enough to search
func (s SearchBar) TooShort() bool {
	v := strings.TrimSpace(s.input.Value())
	return v != "" && utf8.RuneCountInString(v) <= s.minLen
}

// Update routes a message to the input. Tab completes a suggestion.
func (s SearchBar) Update(msg tea.Msg) (SearchBar, tea.Cmd) {
	if !s.input.Focused() {
		return s, nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyTab {
		s.Complete()
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// View renders the input line and the hint line beneath it
func (s SearchBar) View() string {
	style := styles.InactiveBorder
	if s.input.Focused() {
		style = styles.ActiveBorder
	}

	line := s.input.View()
	if s.debouncing {
		line += " " + styles.SpinnerStyle.Render(s.spinner)
	}

	frameW, _ := style.GetFrameSize()
	box := style.Width(max(s.width-frameW, 10)).Render(line)

	return box + "\n" + s.hintLine()
}

func (s SearchBar) hintLine() string {
	switch {
	case s.TooShort():
		return styles.DimStyle.Render("  " + MinQueryHint)
	case len(s.suggestions) > 0 && s.input.Focused():
		parts := make([]string, len(s.suggestions))
		for i, sg := range s.suggestions {
			parts[i] = styles.SuggestionStyle.Render(sg)
		}
		return styles.DimStyle.Render("  recent: ") +
			strings.Join(parts, styles.DimStyle.Render(" · ")) +
			styles.DimStyle.Render("  (tab)")
	default:
		return " "
	}
}
