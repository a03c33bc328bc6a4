package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"message-service/internal/models"
	"message-service/internal/observability"
)

// Hub tracks the live feed connections per group.
type Hub struct {
	rooms map[int]map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[*websocket.Conn]ConnInfo)}
}

// AddClient registers a connection to a group feed.
func (h *Hub) AddClient(groupID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[groupID]; !ok {
		h.rooms[groupID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[groupID][conn] = info
}

// RemoveClient drops a connection from a group feed.
func (h *Hub) RemoveClient(groupID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[groupID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, groupID)
		}
	}
}

// Broadcast fans a freshly created message out to the group's feed. A nil
// hub is safe to call so handlers don't care whether feeds are enabled.
func (h *Hub) Broadcast(groupID int, msg models.Message) {
	if h == nil {
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[groupID]))
	for conn := range h.rooms[groupID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	event := models.GroupEvent{Type: "message", Message: &msg}
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveClient(groupID, conn)
			observability.IncWSEvent("ws_error")
		}
	}
	observability.IncWSEvent("broadcast")
}
