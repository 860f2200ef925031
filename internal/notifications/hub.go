package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"splitboard/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Max total feed connections per instance.
const maxTotalConns = 10000

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("feed hub is shut down")

// FeedHub fans feed events out to every connected websocket client.
type FeedHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// NewFeedHub creates an empty hub.
func NewFeedHub() *FeedHub {
	return &FeedHub{clients: make(map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *FeedHub) Name() string { return "feed hub" }

// Register adds conn to the hub. userID is 0 for anonymous viewers.
func (h *FeedHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.clients[client] = struct{}{}
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send queue.
func (h *FeedHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Count returns the number of connected clients.
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends message to every connected websocket client.
func (h *FeedHub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for c := range h.clients {
		c.TrySend(data)
	}
}

// StartWiring forwards every event published through n to this hub's clients.
func (h *FeedHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartFeedSubscriber(ctx, h.BroadcastAll)
}

// Shutdown gracefully closes all websocket connections
func (h *FeedHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for client := range h.clients {
		if client.Conn != nil {
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message: %v", err)
			}
			_ = client.Conn.Close()
		}
		close(client.Send)
		observability.WebSocketConnectionsTotal.Dec()
	}
	h.clients = make(map[*Client]struct{})
	return nil
}
