package shared

import "context"

// EventHandler processes domain events delivered by the bus.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes names the event types this handler wants; empty means all.
	EventTypes() []string
}

// EventPublisher is the write side of the bus. Application services
// depend on this interface alone so tests can pass a nil publisher.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber is the registration side of the bus.
type EventSubscriber interface {
	// Subscribe registers a handler; without explicit types the
	// handler's EventTypes() declaration applies.
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus combines publishing and subscription with lifecycle hooks.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
