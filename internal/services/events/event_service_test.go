package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/interfaces"
)

func TestService_PublishSync(t *testing.T) {
	t.Run("delivers to all subscribers", func(t *testing.T) {
		svc := NewService(arbor.NewLogger())

		var mu sync.Mutex
		var received []interfaces.Event

		handler := func(ctx context.Context, event interfaces.Event) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, event)
			return nil
		}

		require.NoError(t, svc.Subscribe(interfaces.EventJobUpdated, handler))
		require.NoError(t, svc.Subscribe(interfaces.EventJobUpdated, handler))

		err := svc.PublishSync(context.Background(), interfaces.Event{
			Type:    interfaces.EventJobUpdated,
			Payload: "payload",
		})
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		assert.Len(t, received, 2)
	})

	t.Run("collects handler errors", func(t *testing.T) {
		svc := NewService(arbor.NewLogger())

		require.NoError(t, svc.Subscribe(interfaces.EventJobFailed, func(ctx context.Context, event interfaces.Event) error {
			return fmt.Errorf("handler broke")
		}))

		err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobFailed})
		assert.Error(t, err)
	})

	t.Run("no subscribers is not an error", func(t *testing.T) {
		svc := NewService(arbor.NewLogger())
		err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventThoughtEmitted})
		assert.NoError(t, err)
	})
}

func TestService_Publish(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	done := make(chan interfaces.Event, 1)
	require.NoError(t, svc.Subscribe(interfaces.EventThoughtEmitted, func(ctx context.Context, event interfaces.Event) error {
		done <- event
		return nil
	}))

	err := svc.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventThoughtEmitted,
		Payload: "thinking",
	})
	require.NoError(t, err)

	select {
	case event := <-done:
		assert.Equal(t, "thinking", event.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestService_Subscribe(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	err := svc.Subscribe(interfaces.EventJobUpdated, nil)
	assert.Error(t, err)
}

func TestService_Close(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	invoked := false
	require.NoError(t, svc.Subscribe(interfaces.EventJobUpdated, func(ctx context.Context, event interfaces.Event) error {
		invoked = true
		return nil
	}))

	require.NoError(t, svc.Close())

	require.NoError(t, svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventJobUpdated}))
	assert.False(t, invoked)
}
