package events

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
)

// NewLoggerSubscriber creates an event handler that logs all events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		logEvent := logger.Debug().
			Str("event_type", string(event.Type))

		switch payload := event.Payload.(type) {
		case *models.JobState:
			logEvent = logEvent.
				Str("job_id", payload.JobID).
				Str("status", string(payload.Status)).
				Int("progress", payload.Progress)
		case models.ThoughtEvent:
			logEvent = logEvent.
				Str("job_id", payload.JobID).
				Str("agent", payload.Agent).
				Str("thought_type", payload.EventType)
		}

		logEvent.Msg("Event published")

		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventThoughtEmitted,
		interfaces.EventJobUpdated,
		interfaces.EventJobCompleted,
		interfaces.EventJobFailed,
	}

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Info().
		Int("event_type_count", len(eventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
