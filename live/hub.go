// Package live pushes payment-record lifecycle events to connected admin
// dashboards over websockets, so a submitted QR registration shows up without
// a refresh.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Event is the wire frame sent to every connected client.
type Event struct {
	Type      string      `json:"type"` // record.submitted, record.confirmed, record.rejected
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans events out to all connected clients. It runs as a single goroutine
// started from main; Publish never blocks the caller.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	events     chan Event
	clients    map[*Client]bool
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan Event, 64),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				client.closeSend()
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("live client connected", slog.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				client.closeSend()
				delete(h.clients, client)
				h.logger.Debug("live client disconnected", slog.Int("clients", len(h.clients)))
			}

		case event := <-h.events:
			frame, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode live event", slog.Any("error", err))
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Slow consumer. Drop it rather than stall the hub.
					client.closeSend()
					delete(h.clients, client)
				}
			}
		}
	}
}

// Publish satisfies the service layer's event publisher. Events are dropped
// when the hub's buffer is full; the dashboard refetches on reconnect anyway.
func (h *Hub) Publish(event string, payload interface{}) {
	select {
	case h.events <- Event{Type: event, Payload: payload, Timestamp: time.Now()}:
	default:
		h.logger.Warn("live event dropped", slog.String("type", event))
	}
}
