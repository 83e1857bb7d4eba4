package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/volsource/internal/source"
	"github.com/alexisbeaulieu97/volsource/internal/tui/components"
)

const defaultPollInterval = 100 * time.Millisecond

// Loader is the part of source.Source the progress view observes.
type Loader interface {
	Progress() float64
	Wait(ctx context.Context) (source.Outcome, error)
}

// ProgressMsg reports a progress value observed outside the poll loop.
type ProgressMsg struct {
	Value float64
}

// ItemSkippedMsg reports a folder entry the running batch left out.
type ItemSkippedMsg struct {
	Path   string
	Reason string
}

// OutcomeMsg carries the end of the observed load.
type OutcomeMsg struct {
	Outcome source.Outcome
	Err     error
}

type tickMsg struct{}

// Model is the Bubbletea state of the load progress view.
type Model struct {
	ctx      context.Context
	loader   Loader
	title    string
	interval time.Duration
	width    int

	progress  float64
	skipped   []components.SkippedItem
	outcome   *source.Outcome
	err       error
	finished  bool
	cancelled bool
}

// NewModel builds a model observing loader. title names the loaded input.
func NewModel(ctx context.Context, loader Loader, title string) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:      ctx,
		loader:   loader,
		title:    title,
		interval: defaultPollInterval,
		width:    40,
	}
}

// WithPollInterval overrides how often the loader's progress is sampled.
func (m Model) WithPollInterval(d time.Duration) Model {
	if d > 0 {
		m.interval = d
	}
	return m
}

// Init starts polling and waits for the outcome in the background.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.wait())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) wait() tea.Cmd {
	if m.loader == nil {
		return nil
	}
	ctx, loader := m.ctx, m.loader
	return func() tea.Msg {
		out, err := loader.Wait(ctx)
		return OutcomeMsg{Outcome: out, Err: err}
	}
}

// Progress returns the highest progress observed.
func (m Model) Progress() float64 {
	return m.progress
}

// Outcome returns the observed outcome, or nil while the load runs.
func (m Model) Outcome() *source.Outcome {
	return m.outcome
}

// Skipped returns the entries reported as skipped so far.
func (m Model) Skipped() []components.SkippedItem {
	return m.skipped
}

// IsFinished reports whether the view stopped observing.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user interrupted the view.
func (m Model) Cancelled() bool {
	return m.cancelled
}

func (m *Model) observe(v float64) {
	if v > m.progress {
		m.progress = min(v, 1)
	}
}
