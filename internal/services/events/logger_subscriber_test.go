package events

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
)

// TestNewLoggerSubscriber verifies that the logger subscriber handles the
// payload shapes the pipeline publishes without error.
func TestNewLoggerSubscriber(t *testing.T) {
	logger := arbor.NewLogger()

	subscriber := NewLoggerSubscriber(logger)

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventJobUpdated,
		Payload: &models.JobState{
			JobID:    "job_test123",
			Status:   models.StatusNormalizing,
			Progress: 70,
		},
	}

	if err := subscriber(ctx, event); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	thought := interfaces.Event{
		Type: interfaces.EventThoughtEmitted,
		Payload: models.ThoughtEvent{
			JobID:     "job_test123",
			Agent:     models.AgentOrchestrator,
			EventType: models.EventThought,
		},
	}

	if err := subscriber(ctx, thought); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Unknown payload shapes still log without panicking
	if err := subscriber(ctx, interfaces.Event{Type: interfaces.EventJobFailed, Payload: nil}); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

// TestSubscribeLoggerToAllEvents verifies the subscriber registers for every
// event type without breaking publishing.
func TestSubscribeLoggerToAllEvents(t *testing.T) {
	logger := arbor.NewLogger()

	eventService := NewService(logger)
	defer eventService.Close()

	if err := SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		t.Fatalf("Failed to subscribe logger: %v", err)
	}

	ctx := context.Background()
	eventTypes := []interfaces.EventType{
		interfaces.EventThoughtEmitted,
		interfaces.EventJobUpdated,
		interfaces.EventJobCompleted,
		interfaces.EventJobFailed,
	}

	for _, eventType := range eventTypes {
		event := interfaces.Event{
			Type:    eventType,
			Payload: &models.JobState{JobID: "job_test"},
		}

		if err := eventService.PublishSync(ctx, event); err != nil {
			t.Errorf("Expected no error publishing %s event, got: %v", eventType, err)
		}
	}
}

// TestLoggerSubscriberDoesNotInterfere verifies the logger subscriber doesn't
// interfere with other handlers on the same event type.
func TestLoggerSubscriberDoesNotInterfere(t *testing.T) {
	logger := arbor.NewLogger()

	eventService := NewService(logger)
	defer eventService.Close()

	if err := SubscribeLoggerToAllEvents(eventService, logger); err != nil {
		t.Fatalf("Failed to subscribe logger: %v", err)
	}

	callCount := 0
	customHandler := func(ctx context.Context, event interfaces.Event) error {
		callCount++
		return nil
	}

	if err := eventService.Subscribe(interfaces.EventJobCompleted, customHandler); err != nil {
		t.Fatalf("Failed to subscribe custom handler: %v", err)
	}

	ctx := context.Background()
	event := interfaces.Event{
		Type:    interfaces.EventJobCompleted,
		Payload: &models.JobState{JobID: "job_test"},
	}

	if err := eventService.PublishSync(ctx, event); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	if callCount != 1 {
		t.Errorf("Expected custom handler to be called once, got: %d", callCount)
	}
}
