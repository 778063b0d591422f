package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/healink/healink/internal/model"
)

// Event types pushed to dashboard connections.
const (
	EventRunComplete   = "run_complete"
	EventDeliverySent  = "delivery_sent"
	EventClientChanged = "client_changed"
	EventPhotoUploaded = "photo_uploaded"
)

// Message is a real-time dashboard notification.
type Message struct {
	Type     string         `json:"type"`
	ClientID string         `json:"client_id,omitempty"`
	Channel  string         `json:"channel,omitempty"`
	Day      int            `json:"day,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// RunCompleted builds the message broadcast when a daily run finishes.
func RunCompleted(run model.Run) Message {
	return Message{
		Type: EventRunComplete,
		Extra: map[string]any{
			"success":              run.Success,
			"processed":            run.Processed,
			"emails_sent":          run.EmailsSent,
			"pushes_sent":          run.PushesSent,
			"photo_reminders_sent": run.PhotoReminders,
		},
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
