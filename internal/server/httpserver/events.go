package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
	wsPingInterval  = 54 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local admin endpoint; all origins accepted.
	CheckOrigin: func(*http.Request) bool { return true },
}

// BuildEvent is the message shape streamed to /events subscribers.
type BuildEvent struct {
	Type      string         `json:"type"` // "build_started", "build_completed", "build_failed", "linkcheck_completed"
	BuildID   string         `json:"build_id,omitempty"`
	Trigger   string         `json:"trigger,omitempty"`
	Outcome   string         `json:"outcome,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// wsClient represents one websocket subscriber.
type wsClient struct {
	hub  *EventsHub
	conn *websocket.Conn
	send chan []byte
}

// EventsHub maintains websocket subscribers on the admin port and
// broadcasts build lifecycle events to them.
type EventsHub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
	mu         sync.RWMutex
}

// NewEventsHub creates an events hub. Run must be started for clients
// and broadcasts to be serviced.
func NewEventsHub() *EventsHub {
	return &EventsHub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
}

// Run services registration and broadcasting until the context ends,
// then disconnects all subscribers.
func (h *EventsHub) Run(ctx context.Context) {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			slog.Debug("events client connected", "clients", count)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			slog.Debug("events client disconnected", "clients", count)
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow subscriber; disconnect rather than block.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *EventsHub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	close(h.done)
}

// Broadcast queues a build event for all subscribers. The timestamp is
// filled in when absent. A full queue drops the event rather than
// blocking the build path.
func (h *EventsHub) Broadcast(ev BuildEvent) {
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to marshal build event", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("events broadcast queue full, dropping event", "type", ev.Type)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *EventsHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the connection and registers the subscriber.
func (h *EventsHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "events hub shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{hub: h, conn: conn, send: make(chan []byte, 256)}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so pings are answered and closes are
// noticed. Subscribers are not expected to send anything.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("websocket unexpected close", "error", err)
			}
			return
		}
	}
}

// writePump forwards queued messages and keeps the connection alive
// with periodic pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// Flush any additional queued messages into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
