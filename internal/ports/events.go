package ports

import "context"

const (
	// EventLoadStarted is emitted when a load job begins running.
	EventLoadStarted = "load.started"
	// EventLoadProgress is emitted as a job advances, at most once per tenth.
	EventLoadProgress = "load.progress"
	// EventLoadCompleted is emitted after a job published its collection.
	EventLoadCompleted = "load.completed"
	// EventLoadFailed is emitted when a job terminates with an error.
	EventLoadFailed = "load.failed"
	// EventLoadCancelled is emitted when a job was superseded or stopped.
	EventLoadCancelled = "load.cancelled"
	// EventItemSkipped is emitted for every folder entry skipped by a batch.
	EventItemSkipped = "load.item_skipped"
	// EventFilterChanged is emitted when the active filter was substituted.
	EventFilterChanged = "filter.changed"
	// EventOutputPublished is emitted whenever a new collection becomes visible.
	EventOutputPublished = "output.published"
)

// DomainEvent represents a significant occurrence within the loader. Events
// carry structured payloads that subscribers can use for logging, UI updates,
// or integrations.
type DomainEvent interface {
	EventType() string
	Payload() interface{}
}

// EventPublisher distributes events to interested subscribers. Dispatch is
// synchronous: Publish blocks until all handlers run. Handlers may spawn
// goroutines if work should continue in the background. Implementations must
// be thread-safe.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
}

// EventHandler processes an event of a specific type. Failures should be
// returned rather than panicking so the publisher can log them and continue.
type EventHandler func(context.Context, DomainEvent) error

// Subscription represents a registered handler. Callers must invoke
// Unsubscribe to stop receiving events.
type Subscription interface {
	Unsubscribe()
}
