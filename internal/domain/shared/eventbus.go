package shared

import "context"

// EventHandler reacts to delivered domain events. Delivery is at least once,
// so Handle must tolerate seeing the same event twice.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler wants; empty means all
	EventTypes() []string
}

type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus routes published events to subscribed handlers
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventRecorder captures events inside a database transaction. They are
// written to the outbox with the transaction and delivered only after commit.
type EventRecorder interface {
	Record(ctx context.Context, events ...DomainEvent) error
}
