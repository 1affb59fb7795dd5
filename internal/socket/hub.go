package socket

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/fedro86/almost-a-cms/internal/generator"
)

const RegeneratedType = "regenerated"

// Event is pushed to every subscriber after the index is rebuilt.
type Event struct {
	Type        string    `json:"type"`
	Path        string    `json:"path"`
	Documents   int       `json:"documents"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Hub fans regeneration events out to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.count.Store(0)
			return
		case client := <-h.register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.count.Store(int64(len(h.clients)))
			}
		case payload := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					logutil.GetLogger(ctx).Warn("event subscriber lagging, dropping", zap.String("remote", client.remote))
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.count.Store(int64(len(h.clients)))
		}
	}
}

// Publish matches generator.Listener. It never blocks the regeneration path.
func (h *Hub) Publish(ctx context.Context, result *generator.Result) {
	if result == nil {
		return
	}
	payload, err := json.Marshal(Event{
		Type:        RegeneratedType,
		Path:        result.Path,
		Documents:   result.Documents,
		GeneratedAt: result.GeneratedAt,
	})
	if err != nil {
		logutil.GetLogger(ctx).Error("encode event failed", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		logutil.GetLogger(ctx).Warn("event queue full, dropping regeneration event")
	}
}

// Clients reports the number of registered subscribers.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
