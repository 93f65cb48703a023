package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope every websocket push uses. Type tells the client how
// to interpret Payload ("message", "typing", "notification", ...).
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// directEvent targets an event at a single user.
type directEvent struct {
	TargetUserID uuid.UUID
	Payload      []byte
}

// Hub maintains the set of active clients. A user may hold several
// connections at once (multiple tabs, phone + laptop); an event for a user
// goes to all of them.
type Hub struct {
	// Registered clients. Maps user ID to its set of active connections.
	Clients map[uuid.UUID]map[*Client]bool

	// Channel for events targeted at specific users.
	sendDirect chan *directEvent

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Called when a user's last connection goes away. Set before Run starts.
	OnUserOffline func(userID uuid.UUID)

	// Mutex to protect concurrent access to the clients map.
	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		sendDirect: make(chan *directEvent, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Clients:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// Run starts the hub's processing loop.
func (h *Hub) Run() {
	log.Println("WebSocket Hub started.")
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; !ok {
				h.Clients[client.UserID] = make(map[*Client]bool)
			}
			h.Clients[client.UserID][client] = true
			log.Printf("WebSocket client registered for user %s (connections: %d)", client.UserID, len(h.Clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			wentOffline := false
			h.mu.Lock()
			if userClients, ok := h.Clients[client.UserID]; ok {
				if _, clientOk := userClients[client]; clientOk {
					delete(userClients, client)
					if len(userClients) == 0 {
						delete(h.Clients, client.UserID)
						wentOffline = true
					}
					log.Printf("WebSocket client unregistered for user %s (remaining: %d)", client.UserID, len(userClients))
				}
			}
			h.mu.Unlock()
			if wentOffline && h.OnUserOffline != nil {
				h.OnUserOffline(client.UserID)
			}

		case event := <-h.sendDirect:
			h.mu.RLock()
			if userClients, ok := h.Clients[event.TargetUserID]; ok {
				for client := range userClients {
					select {
					case client.Send <- event.Payload:
					default:
						log.Printf("Send buffer full for a connection of user %s, event dropped for that connection", client.UserID)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// IsOnline reports whether the user has at least one active connection.
func (h *Hub) IsOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients[userID]) > 0
}

// PushToUser delivers an event to every connection a user holds. Delivery is
// best effort: an offline user simply misses the push and catches up over
// HTTP.
func (h *Hub) PushToUser(targetUserID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		log.Printf("Failed to marshal %s event for user %s: %v", eventType, targetUserID, err)
		return
	}

	event := &directEvent{
		TargetUserID: targetUserID,
		Payload:      data,
	}
	select {
	case h.sendDirect <- event:
	case <-time.After(1 * time.Second):
		log.Printf("Timeout queuing %s event for user %s, hub busy", eventType, targetUserID)
	}
}
