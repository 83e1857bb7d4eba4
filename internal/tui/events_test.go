package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/volsource/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/volsource/internal/ports"
)

type skipEvent map[string]interface{}

func (skipEvent) EventType() string      { return ports.EventItemSkipped }
func (e skipEvent) Payload() interface{} { return map[string]interface{}(e) }

func TestForwardSkipsSendsMessages(t *testing.T) {
	pub := events.NewLoggingPublisher(nil)
	var got []tea.Msg

	sub, err := ForwardSkips(pub, func(msg tea.Msg) { got = append(got, msg) })
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), skipEvent{"file": "/data/c.bad", "error": "unsupported format"}))
	require.Equal(t, []tea.Msg{ItemSkippedMsg{Path: "/data/c.bad", Reason: "unsupported format"}}, got)

	sub.Unsubscribe()
	require.NoError(t, pub.Publish(context.Background(), skipEvent{"file": "other"}))
	require.Len(t, got, 1)
}

func TestForwardSkipsRequiresArguments(t *testing.T) {
	_, err := ForwardSkips(nil, func(tea.Msg) {})
	require.Error(t, err)

	_, err = ForwardSkips(events.NewLoggingPublisher(nil), nil)
	require.Error(t, err)
}
