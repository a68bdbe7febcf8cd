package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. A screen request may carry
	// an explicit ticker list.
	maxMessageSize = 64 * 1024

	// Upper bound on a screen started over the socket.
	wsScreenTimeout = 5 * time.Minute
)

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// wsInbound is a message received from a client. Data is decoded by type.
type wsInbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ProgressUpdate reports fetch progress of a running screen.
type ProgressUpdate struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// WSHub tracks connected clients and fans out broadcast messages.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
	stopped    chan struct{}
}

// WSClient represents a single WebSocket connection. send is never closed;
// done signals the write pump to stop.
type WSClient struct {
	hub       *WSHub
	send      chan WSMessage
	done      chan struct{}
	closeOnce sync.Once
	screening atomic.Bool
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		stopped:    make(chan struct{}),
	}
}

func newWSClient(hub *WSHub) *WSClient {
	return &WSClient{
		hub:  hub,
		send: make(chan WSMessage, 256),
		done: make(chan struct{}),
	}
}

// Run starts the hub event loop. It returns when ctx is done, disconnecting
// every client.
func (h *WSHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			close(h.stopped)
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			client.close()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; it misses this broadcast.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub. A client registered after the hub
// stopped is closed immediately.
func (h *WSHub) Register(client *WSClient) {
	select {
	case h.register <- client:
	case <-h.stopped:
		client.close()
	}
}

// Unregister removes a client from the hub and closes it.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
		client.close()
	}
}

func (c *WSClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// deliver queues msg for the write pump. It blocks while the queue is full
// and reports false once the client has gone.
func (c *WSClient) deliver(msg WSMessage) bool {
	// A closed client must win even when the queue has room.
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case <-c.done:
		return false
	case c.send <- msg:
		return true
	}
}

// ============================================================
// Connection handling
// ============================================================

// handleWebSocket upgrades the connection. Clients send
// {"type":"screen","data":{...ScreenRequest}} and receive "progress"
// messages followed by a "result" or "error". Every client also receives
// "screen_complete" summaries of screens run by anyone.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := newWSClient(s.wsHub)
	s.wsHub.Register(client)

	go s.wsWritePump(conn, client)
	go s.wsReadPump(conn, client)
}

// wsReadPump reads client messages until the connection drops. Screens it
// starts are cancelled when it returns.
func (s *Server) wsReadPump(conn *websocket.Conn, client *WSClient) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		client.hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var msg wsInbound
		if err := json.Unmarshal(message, &msg); err != nil {
			client.deliver(WSMessage{Type: "error", Data: "invalid message"})
			continue
		}

		switch msg.Type {
		case "screen":
			var req ScreenRequest
			if len(msg.Data) > 0 {
				if err := json.Unmarshal(msg.Data, &req); err != nil {
					client.deliver(WSMessage{Type: "error", Data: "invalid screen request"})
					continue
				}
			}
			if !client.screening.CompareAndSwap(false, true) {
				client.deliver(WSMessage{Type: "error", Data: "a screen is already running"})
				continue
			}
			go s.wsScreen(ctx, client, req)
		case "ping":
			client.deliver(WSMessage{Type: "pong"})
		default:
			client.deliver(WSMessage{Type: "error", Data: "unknown message type: " + msg.Type})
		}
	}
}

// wsScreen runs one screen for a client, streaming progress.
func (s *Server) wsScreen(ctx context.Context, client *WSClient, req ScreenRequest) {
	defer client.screening.Store(false)

	ctx, cancel := context.WithTimeout(ctx, wsScreenTimeout)
	defer cancel()

	progress := func(done, total int) {
		client.deliver(WSMessage{Type: "progress", Data: ProgressUpdate{Done: done, Total: total}})
	}
	resp, err := s.runScreen(ctx, req, progress)
	if err != nil {
		client.deliver(WSMessage{Type: "error", Data: err.Error()})
		return
	}
	client.deliver(WSMessage{Type: "result", Data: resp})
}

// wsWritePump writes queued messages and keepalive pings to the connection.
func (s *Server) wsWritePump(conn *websocket.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-client.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug().Err(err).Msg("WebSocket write failed")
				client.close()
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.close()
				return
			}
		}
	}
}
