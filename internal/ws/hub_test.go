package ws

import (
	"testing"

	"message-service/internal/models"
)

func modelsMessage() models.Message {
	return models.Message{ID: 1, GroupID: 1, Sender: "alice", Text: "hi", Priority: "normal"}
}

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient(1, nil, ConnInfo{Username: "alice"})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected room to be created")
	}

	hub.RemoveClient(1, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected room to be removed")
	}
}

func TestHubBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub()
	// must not panic with no registered clients
	hub.Broadcast(1, modelsMessage())
}

func TestNilHubBroadcast(t *testing.T) {
	var hub *Hub
	hub.Broadcast(1, modelsMessage())
}
