// Package orderfeed pushes order events to connected admin dashboards over websockets.
package orderfeed

import (
	"context"
	"encoding/json"

	"babumoshai/mq"

	"go.uber.org/zap"
)

// Client is one connected dashboard. Send is closed by the hub.
type Client struct {
	UserID string
	Send   chan []byte
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		log:        log,
	}
}

// Run owns the client set until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			close(c.Send)
			delete(h.clients, c)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.Send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.Send <- msg:
				default:
					// too slow; drop it rather than stall everyone else
					delete(h.clients, c)
					close(c.Send)
					h.log.Warn("order feed client dropped", zap.String("user_id", c.UserID))
				}
			}
		}
	}
}

func (h *Hub) Register(ctx context.Context, c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) Unregister(ctx context.Context, c *Client) {
	select {
	case h.unregister <- c:
	case <-ctx.Done():
	}
}

// Forward broadcasts ev. It never blocks the caller; events are dropped when the hub is
// backed up.
func (h *Hub) Forward(ev mq.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("encode order event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("order feed backlog full, event dropped", zap.String("order_id", ev.OrderID))
	}
}
