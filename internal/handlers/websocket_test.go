package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/common"
	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
	"github.com/ternarybob/promoparse/internal/services/events"
)

func TestShouldBroadcast_Whitelist(t *testing.T) {
	h := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{
		AllowedEvents: []string{"job_updated", "job_completed"},
	})

	assert.True(t, h.shouldBroadcast("job_updated"))
	assert.True(t, h.shouldBroadcast("job_completed"))
	assert.False(t, h.shouldBroadcast("thought_emitted"))
}

func TestShouldBroadcast_EmptyWhitelistAllowsAll(t *testing.T) {
	h := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{})

	assert.True(t, h.shouldBroadcast("job_updated"))
	assert.True(t, h.shouldBroadcast("thought_emitted"))
}

func TestShouldBroadcast_Throttle(t *testing.T) {
	h := NewWebSocketHandler(nil, arbor.NewLogger(), &common.WebSocketConfig{
		ThrottleIntervals: map[string]string{"thought_emitted": "1h"},
	})

	assert.True(t, h.shouldBroadcast("thought_emitted"))
	assert.False(t, h.shouldBroadcast("thought_emitted"))
	// Unthrottled types are unaffected
	assert.True(t, h.shouldBroadcast("job_updated"))
}

func TestWebSocketStreamsJobEvents(t *testing.T) {
	eventService := events.NewService(arbor.NewLogger())
	h := NewWebSocketHandler(eventService, arbor.NewLogger(), &common.WebSocketConfig{})

	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// First frame identifies the server instance
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello WSMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)

	state := models.NewJobState("job-1", models.PlatformSAGE, models.JobFeatures{})
	require.NoError(t, eventService.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventJobUpdated,
		Payload: state,
	}))

	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "job_updated", msg.Type)

	payload, err := json.Marshal(msg.Payload)
	require.NoError(t, err)
	var received models.JobState
	require.NoError(t, json.Unmarshal(payload, &received))
	assert.Equal(t, "job-1", received.JobID)
}
