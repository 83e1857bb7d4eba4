package components

import (
	"fmt"
	"strings"
	"time"
)

// SkippedItem is a folder entry left out of a batch.
type SkippedItem struct {
	Path   string
	Reason string
}

// SummaryData aggregates what the summary shows.
type SummaryData struct {
	Status    string
	Sequences int
	Duration  time.Duration
	Skipped   []SkippedItem
	Err       string
}

// Summary renders a textual load summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary. Nothing is rendered before a status is known.
func (s Summary) View() string {
	if s.data.Status == "" && len(s.data.Skipped) == 0 {
		return ""
	}

	var lines []string
	switch s.data.Status {
	case "":
	case "published":
		lines = append(lines, fmt.Sprintf("Loaded %d sequence(s) in %s", s.data.Sequences, s.data.Duration.Truncate(time.Millisecond)))
	case "empty":
		lines = append(lines, "Nothing matched the active filter")
	case "cancelled":
		lines = append(lines, "Load cancelled")
	default:
		lines = append(lines, fmt.Sprintf("Load %s", s.data.Status))
	}
	if s.data.Err != "" {
		lines = append(lines, "Error: "+s.data.Err)
	}

	if len(s.data.Skipped) > 0 {
		lines = append(lines, fmt.Sprintf("Skipped %d item(s):", len(s.data.Skipped)))
		for _, item := range s.data.Skipped {
			lines = append(lines, fmt.Sprintf("  ⊘ %s: %s", item.Path, item.Reason))
		}
	}

	return strings.Join(lines, "\n")
}
