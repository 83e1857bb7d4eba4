package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/volsource/internal/source"
	"github.com/alexisbeaulieu97/volsource/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	title := titleStyle.Render(fmt.Sprintf("volsource • %s", m.displayTitle()))
	sections = append(sections, title)

	sections = append(sections, sectionStyle.Render("Progress"), components.NewProgress(m.width).View(m.progress))

	data := components.SummaryData{Skipped: m.skipped}
	if m.outcome != nil {
		data.Status = string(m.outcome.Status)
		data.Sequences = m.outcome.Sequences
		data.Duration = m.outcome.Duration
		if m.outcome.Err != nil {
			data.Err = m.outcome.Err.Error()
		}
	}
	if m.err != nil {
		data.Err = m.err.Error()
	}
	summary := components.NewSummary(data).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render(StatusIcon(data.Status)+" Summary"), summaryStyle.Render(summary))
	}

	if !m.finished {
		sections = append(sections, hintStyle.Render("press q to stop"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) displayTitle() string {
	if strings.TrimSpace(m.title) != "" {
		return m.title
	}
	return "load"
}

// StatusIcon returns the glyph representing a load status.
func StatusIcon(status string) string {
	switch source.Status(status) {
	case source.StatusPublished:
		return successStyle.Render("✓")
	case source.StatusFailed:
		return failureStyle.Render("✗")
	case source.StatusEmpty, source.StatusCancelled:
		return skippedStyle.Render("⊘")
	default:
		return skippedStyle.Render("…")
	}
}
