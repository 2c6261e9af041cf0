package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.ForceQuit) {
		return m, tea.Quit
	}

	// The overlay swallows every key; the grid underneath keeps its place
	if handled, _ := m.Modal.HandleKey(msg); handled {
		return m, nil
	}

	if m.showHelp {
		if key.Matches(msg, Keys.Help, Keys.Quit) || msg.Type == tea.KeyEsc {
			m.showHelp = false
		}
		return m, nil
	}

	if m.focus == FocusSearch {
		return m.handleSearchKey(msg)
	}
	return m.handleGridKey(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Submit):
		var cmd tea.Cmd
		if m.ctrl.Submit() {
			cmd = m.fetchActive()
		}
		m.updateSuggestions()
		m.focusGrid()
		m.refresh()
		return m, cmd

	case key.Matches(msg, Keys.LeaveSearch):
		m.focusGrid()
		return m, nil
	}

	prev := m.Search.Value()
	var cmd tea.Cmd
	m.Search, cmd = m.Search.Update(msg)
	if v := m.Search.Value(); v != prev {
		cmds := []tea.Cmd{cmd}
		if m.ctrl.Type(v) {
			cmds = append(cmds, m.fetchActive())
		}
		m.updateSuggestions()
		m.refresh()
		return m, tea.Batch(cmds...)
	}
	return m, cmd
}

func (m Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Filter input takes everything while typing
	if m.Grid.IsFilterTyping() {
		var cmd tea.Cmd
		m.Grid, cmd = m.Grid.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, Keys.FocusSearch):
		m.Grid.ClearFilter()
		return m, m.focusSearch()

	case key.Matches(msg, Keys.Filter):
		return m, m.Grid.ToggleFilter()

	case key.Matches(msg, Keys.Details):
		return m, m.openDetails()

	case key.Matches(msg, Keys.LoadMore):
		return m, m.loadMore()

	case key.Matches(msg, Keys.Refresh):
		n := m.ctrl.Refresh()
		m.logger.Info("refreshing listing", "query", m.ctrl.Query(), "entries", n)
		m.refresh()
		return m, tea.Batch(m.fetchActive(), m.setStatus("Refreshing...", false))
	}

	var cmd tea.Cmd
	m.Grid, cmd = m.Grid.Update(msg)
	if m.Grid.AtLastRow() {
		return m, tea.Batch(cmd, m.loadMore())
	}
	return m, cmd
}
