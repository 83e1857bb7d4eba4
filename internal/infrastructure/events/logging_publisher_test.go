package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logginginfra "github.com/alexisbeaulieu97/volsource/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/volsource/internal/ports"
)

type sampleEvent struct {
	eventType string
	payload   interface{}
}

func (e sampleEvent) EventType() string    { return e.eventType }
func (e sampleEvent) Payload() interface{} { return e.payload }

func newPublisher(t *testing.T, level string) (*LoggingPublisher, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := logginginfra.New(logginginfra.Options{Writer: buf, Level: level, Layer: "test", Component: "publisher"})
	require.NoError(t, err)
	return NewLoggingPublisher(logger), buf
}

func TestLoggingPublisherIncludesCorrelationID(t *testing.T) {
	t.Parallel()

	publisher, buf := newPublisher(t, "info")

	ctx := ports.WithCorrelationID(context.Background(), "abc-123")
	require.NoError(t, publisher.Publish(ctx, sampleEvent{
		eventType: ports.EventLoadStarted,
		payload:   map[string]interface{}{"job_id": "01J", "mode": "folder"},
	}))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "domain event", entry["msg"])
	assert.Equal(t, ports.EventLoadStarted, entry["event_type"])
	assert.Equal(t, "abc-123", entry["correlation_id"])
	assert.Equal(t, "folder", entry["mode"])
	assert.Equal(t, "info", entry["level"])
}

func TestLoggingPublisherLevels(t *testing.T) {
	t.Parallel()

	publisher, buf := newPublisher(t, "info")
	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, sampleEvent{eventType: ports.EventLoadProgress, payload: map[string]interface{}{"progress": 0.5}}))
	assert.Zero(t, buf.Len(), "progress is logged at debug")

	require.NoError(t, publisher.Publish(ctx, sampleEvent{eventType: ports.EventItemSkipped, payload: "c.raw"}))
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "c.raw", entry["payload"])
}

func TestLoggingPublisherInvokesSubscribersInOrder(t *testing.T) {
	t.Parallel()

	publisher, buf := newPublisher(t, "info")

	var calls []string
	_, err := publisher.Subscribe(AllEvents, func(context.Context, ports.DomainEvent) error {
		calls = append(calls, "all")
		return errors.New("handler broke")
	})
	require.NoError(t, err)
	sub, err := publisher.Subscribe(ports.EventLoadCompleted, func(context.Context, ports.DomainEvent) error {
		calls = append(calls, "completed")
		return nil
	})
	require.NoError(t, err)

	event := sampleEvent{eventType: ports.EventLoadCompleted}
	require.NoError(t, publisher.Publish(context.Background(), event))
	assert.Equal(t, []string{"all", "completed"}, calls)
	assert.True(t, strings.Contains(buf.String(), "event handler failed"))

	sub.Unsubscribe()
	calls = nil
	require.NoError(t, publisher.Publish(context.Background(), event))
	assert.Equal(t, []string{"all"}, calls)
}

func TestLoggingPublisherWithoutLoggerStillDispatches(t *testing.T) {
	t.Parallel()

	publisher := NewLoggingPublisher(nil)
	handled := false
	_, err := publisher.Subscribe(ports.EventFilterChanged, func(context.Context, ports.DomainEvent) error {
		handled = true
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), sampleEvent{eventType: ports.EventFilterChanged}))
	assert.True(t, handled)

	sub, err := publisher.Subscribe("x", nil)
	require.NoError(t, err)
	sub.Unsubscribe()
}
