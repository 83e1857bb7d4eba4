package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/source"
)

func TestViewRendersRunningLoad(t *testing.T) {
	m := NewModel(context.Background(), &fakeLoader{}, "subjects/")
	m.progress = 0.5

	view := m.View()
	require.Contains(t, view, "volsource • subjects/")
	require.Contains(t, view, "Progress")
	require.Contains(t, view, "50%")
	require.Contains(t, view, "press q to stop")
	require.NotContains(t, view, "Summary")
}

func TestViewDefaultsTitle(t *testing.T) {
	m := NewModel(context.Background(), &fakeLoader{}, " ")
	require.Contains(t, m.View(), "volsource • load")
}

func TestViewRendersOutcome(t *testing.T) {
	m := NewModel(context.Background(), &fakeLoader{}, "")
	updated, _ := m.Update(ItemSkippedMsg{Path: "c.bad", Reason: "unsupported format"})
	m = updated.(Model)
	updated, _ = m.Update(OutcomeMsg{Outcome: source.Outcome{Status: source.StatusPublished, Sequences: 2, Duration: time.Second}})
	m = updated.(Model)

	view := m.View()
	require.Contains(t, view, "Summary")
	require.Contains(t, view, "Loaded 2 sequence(s)")
	require.Contains(t, view, "c.bad")
	require.NotContains(t, view, "press q to stop")
}

func TestViewRendersWaitError(t *testing.T) {
	m := NewModel(context.Background(), &fakeLoader{}, "")
	updated, _ := m.Update(OutcomeMsg{Err: errors.New("interrupted")})

	require.Contains(t, updated.(Model).View(), "Error: interrupted")
}

func TestStatusIcon(t *testing.T) {
	require.Contains(t, StatusIcon("published"), "✓")
	require.Contains(t, StatusIcon("failed"), "✗")
	require.Contains(t, StatusIcon("cancelled"), "⊘")
	require.Contains(t, StatusIcon("empty"), "⊘")
	require.Contains(t, StatusIcon(""), "…")
}
