package hub

import (
	"encoding/json"
	"sync"

	"github.com/aadrigaar/portal-productos/internal/domain"
	"github.com/aadrigaar/portal-productos/pkg/log"
)

// Hub tracks live clients and fans events out to them. Broadcast
// snapshots the recipient set under the lock so a concurrent
// connect/disconnect never mutates the set mid-iteration, and each
// recipient sees broadcasts in the order they were triggered.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // sessionID -> client
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Add registers a client for delivery.
func (h *Hub) Add(client *Client) {
	h.mu.Lock()
	h.clients[client.SessionID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldSessionID, client.SessionID).Msg("client added to hub")
}

// Remove drops a client from delivery. Removing an absent session is a no-op.
func (h *Hub) Remove(sessionID string) {
	h.mu.Lock()
	delete(h.clients, sessionID)
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldSessionID, sessionID).Msg("client removed from hub")
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers an event to every client except the excluded
// session (pass "" to reach everyone). The payload is marshalled once.
// Clients whose send buffer is full are disconnected.
func (h *Hub) Broadcast(event *domain.OutEvent, excludeSessionID string) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.clients))
	for id, client := range h.clients {
		if id == excludeSessionID {
			continue
		}
		recipients = append(recipients, client)
	}
	h.mu.RUnlock()

	for _, client := range recipients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer: drop the connection rather than block the fan-out.
			go client.Close()
		}
	}
	return nil
}

// SendTo delivers an event to a single session, if still connected.
func (h *Hub) SendTo(sessionID string, event *domain.OutEvent) error {
	h.mu.RLock()
	client, ok := h.clients[sessionID]
	h.mu.RUnlock()

	if !ok {
		return nil
	}
	return client.SendEvent(event)
}
