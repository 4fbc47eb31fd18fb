package shared

import "context"

// EventHandler handles events delivered to a backing service
type EventHandler interface {
	// Handle processes one event
	Handle(ctx context.Context, event Event) error
}

// EventHandlerFunc adapts a function to EventHandler
type EventHandlerFunc func(ctx context.Context, event Event) error

// Handle calls f(ctx, event)
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// EventPublisher sends events to a named channel
type EventPublisher interface {
	// Publish hands the event to the transport; it does not wait for consumers
	Publish(ctx context.Context, channel string, event Event) error
}
