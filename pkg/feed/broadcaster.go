// Package feed pushes swap status events to websocket clients.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aptos-swap/pkg/swap"
)

const writeTimeout = 5 * time.Second

// Broadcaster fans messages out to every connected websocket client
type Broadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	snapshot func() any
	logger   *slog.Logger
}

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger,
	}
}

// SetSnapshot registers a function whose result is sent to each client
// right after it connects
func (b *Broadcaster) SetSnapshot(fn func() any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshot = fn
}

// Broadcast sends v as JSON to all clients. Clients that fail to receive
// it are disconnected.
func (b *Broadcaster) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("failed to marshal feed message", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		if err := b.writeLocked(c, msg); err != nil {
			b.logger.Debug("websocket write failed, dropping client", "remote", c.RemoteAddr().String(), "error", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

func (b *Broadcaster) writeLocked(c *websocket.Conn, msg []byte) error {
	_ = c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.WriteMessage(websocket.TextMessage, msg)
}

// Forward broadcasts every event from events until ctx ends or the
// channel is closed
func (b *Broadcaster) Forward(ctx context.Context, events <-chan swap.StatusEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.Broadcast(ev)
		}
	}
}

// Handler returns an http.HandlerFunc to accept websocket connections
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		b.mu.Lock()
		b.clients[conn] = struct{}{}
		if b.snapshot != nil {
			if msg, err := json.Marshal(b.snapshot()); err == nil {
				_ = b.writeLocked(conn, msg)
			}
		}
		b.mu.Unlock()

		// drain reads so close frames are noticed
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// ClientCount returns the number of connected clients
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.Close()
		delete(b.clients, c)
	}
}
