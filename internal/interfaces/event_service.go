package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventThoughtEmitted EventType = "thought_emitted"
	EventJobUpdated     EventType = "job_updated"
	EventJobCompleted   EventType = "job_completed"
	EventJobFailed      EventType = "job_failed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the pub/sub event bus that feeds live dashboard
// viewers (WebSocket) and any other subscriber.
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes an event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
