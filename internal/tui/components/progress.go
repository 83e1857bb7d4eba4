package components

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Progress renders the completion fraction of a load job.
type Progress struct {
	bar progress.Model
}

// NewProgress creates a progress component of the given bar width.
func NewProgress(width int) Progress {
	bar := progress.New(progress.WithDefaultGradient())
	if width <= 0 {
		width = 30
	}
	bar.Width = width
	return Progress{bar: bar}
}

// View renders the bar for fraction, clamped to [0,1].
func (p Progress) View(fraction float64) string {
	if math.IsNaN(fraction) {
		fraction = 0
	}
	fraction = math.Max(0, math.Min(1, fraction))
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%3.0f%%", fraction*100))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", p.bar.ViewAs(fraction))
}
