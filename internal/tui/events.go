package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/volsource/internal/ports"
)

// ForwardSkips subscribes to skipped-item events and sends them to the
// program as ItemSkippedMsg.
func ForwardSkips(pub ports.EventPublisher, send func(tea.Msg)) (ports.Subscription, error) {
	if pub == nil || send == nil {
		return nil, fmt.Errorf("tui: publisher and send are required")
	}
	return pub.Subscribe(ports.EventItemSkipped, func(_ context.Context, evt ports.DomainEvent) error {
		payload, ok := evt.Payload().(map[string]interface{})
		if !ok {
			return nil
		}
		file, _ := payload["file"].(string)
		reason, _ := payload["error"].(string)
		send(ItemSkippedMsg{Path: file, Reason: reason})
		return nil
	})
}
