package notify

import (
	"context"

	ws "shopapi/internal/websocket"
)

// HubSink broadcasts notifications to connected websocket clients so the
// admin console sees new orders in realtime.
type HubSink struct {
	hub *ws.Hub
}

func NewHubSink(hub *ws.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Send(_ context.Context, message string) {
	// Broadcast is buffered by the hub's dispatch loop; a full client
	// queue drops that client, never the request.
	s.hub.Broadcast <- []byte(message)
}
