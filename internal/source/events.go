package source

import (
	"context"

	"github.com/alexisbeaulieu97/volsource/internal/ports"
)

type domainEvent struct {
	eventType string
	payload   interface{}
}

func (e domainEvent) EventType() string {
	return e.eventType
}

func (e domainEvent) Payload() interface{} {
	return e.payload
}

func (s *Source) publishEvent(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	event := domainEvent{
		eventType: eventType,
		payload:   payload,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.WithField("event_type", eventType).WarnErr(err, "failed to publish domain event")
	}
}

func (s *Source) incCounter(ctx context.Context, name string, labels map[string]string) {
	if s.metrics != nil {
		s.metrics.IncCounter(ctx, name, labels)
	}
}

func (s *Source) setGauge(ctx context.Context, name string, value float64) {
	if s.metrics != nil {
		s.metrics.SetGauge(ctx, name, value, nil)
	}
}

func (s *Source) observe(ctx context.Context, name string, value float64) {
	if s.metrics != nil {
		s.metrics.ObserveHistogram(ctx, name, value, nil)
	}
}

var _ ports.DomainEvent = domainEvent{}
