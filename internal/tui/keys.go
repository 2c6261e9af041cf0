package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the page-level key bindings
type KeyMap struct {
	FocusSearch key.Binding
	LeaveSearch key.Binding
	Submit      key.Binding
	Complete    key.Binding
	Details     key.Binding
	LoadMore    key.Binding
	Refresh     key.Binding
	Filter      key.Binding
	Navigate    key.Binding
	Help        key.Binding
	Quit        key.Binding
	ForceQuit   key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		FocusSearch: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		LeaveSearch: key.NewBinding(
			key.WithKeys("esc", "down"),
			key.WithHelp("esc", "to results"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search now"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "load more"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Filter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter"),
		),
		Navigate: key.NewBinding(
			key.WithKeys("h", "j", "k", "l"),
			key.WithHelp("hjkl/←↓↑→", "move"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()

// searchHelp is the help.KeyMap shown while the search bar has focus
type searchHelp struct{ k KeyMap }

func (h searchHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Submit, h.k.Complete, h.k.LeaveSearch, h.k.ForceQuit}
}

func (h searchHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp()}
}

// gridHelp is the help.KeyMap shown while the grid has focus
type gridHelp struct{ k KeyMap }

func (h gridHelp) ShortHelp() []key.Binding {
	return []key.Binding{h.k.Details, h.k.FocusSearch, h.k.LoadMore, h.k.Filter, h.k.Help, h.k.Quit}
}

func (h gridHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.k.Navigate, h.k.Details, h.k.LoadMore},
		{h.k.FocusSearch, h.k.Filter, h.k.Refresh},
		{h.k.Help, h.k.Quit},
	}
}
