package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/volsource/internal/source"
	"github.com/alexisbeaulieu97/volsource/internal/tui/components"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.finished {
			return m, nil
		}
		if m.loader != nil {
			m.observe(m.loader.Progress())
		}
		return m, m.tick()
	case ProgressMsg:
		m.observe(msg.Value)
		return m, nil
	case ItemSkippedMsg:
		m.skipped = append(m.skipped, components.SkippedItem{Path: msg.Path, Reason: msg.Reason})
		return m, nil
	case OutcomeMsg:
		out := msg.Outcome
		m.outcome = &out
		m.err = msg.Err
		if msg.Err == nil && (out.Status == source.StatusPublished || out.Status == source.StatusEmpty) {
			m.observe(1)
		}
		m.finished = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		if msg.Width > 20 {
			m.width = min(msg.Width-12, 80)
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	case tea.QuitMsg:
		m.finished = true
		return m, nil
	}

	return m, nil
}
