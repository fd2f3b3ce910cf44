package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"quiz-show/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 200

	// MaxWSConnectionsPerIP is the maximum WebSocket connections per IP
	MaxWSConnectionsPerIP = 10

	wsWriteTimeout = 5 * time.Second
)

// Message names pushed to overlays
const (
	MessageGameState  = "game:state"
	MessagePlayerView = "player:view"
)

// StateSource provides the views pushed to WebSocket clients.
// *game.Engine satisfies it.
type StateSource interface {
	Snapshot() game.GameSnapshot
	PlayerView(id string) (game.PlayerView, error)
}

// WSMessage is the envelope of every message sent to clients
type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// EventUpdate is sent after every engine event
type EventUpdate struct {
	Event game.Event        `json:"event"`
	State game.GameSnapshot `json:"state"`
}

// wsClient tracks a WebSocket connection with its source IP.
// A non-empty playerID subscribes the client to its contestant view.
type wsClient struct {
	conn     *websocket.Conn
	ip       string
	playerID string
}

// WebSocketHub fans engine events out to overlays. Only the Run goroutine
// writes to connections.
type WebSocketHub struct {
	source     StateSource
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]*wsClient
	broadcast  chan game.Event
	register   chan *wsClient
	unregister chan *websocket.Conn
	stopChan   chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	// Connection limiting per IP
	wsLimiter *WebSocketRateLimiter
}

// NewWebSocketHub creates a hub that accepts browser origins matching
// origins (nil means DefaultAllowedOrigins)
func NewWebSocketHub(source StateSource, origins []string) *WebSocketHub {
	h := &WebSocketHub{
		source:     source,
		clients:    make(map[*websocket.Conn]*wsClient),
		broadcast:  make(chan game.Event, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *websocket.Conn),
		stopChan:   make(chan struct{}),
		wsLimiter:  NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
	}

	checker := NewOriginChecker(origins)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if checker.Allowed(origin) {
				return true
			}
			log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// Run owns every connection write until Stop is called
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for conn, client := range h.clients {
				h.wsLimiter.Release(client.ip)
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			UpdateWSConnections(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			count := len(h.clients)
			h.mu.Unlock()

			log.Printf("📱 Overlay connected from %s (%d total)", client.ip, count)
			UpdateWSConnections(count)

			// Hello with the current state so late joiners render immediately
			h.send(client, h.encode(MessageGameState, h.source.Snapshot()))
			h.sendView(client)

		case conn := <-h.unregister:
			if h.drop(conn) {
				count := h.ClientCount()
				log.Printf("📱 Overlay disconnected (%d remaining)", count)
				UpdateWSConnections(count)
			}

		case ev := <-h.broadcast:
			message := h.encode(ev.Type.String(), EventUpdate{Event: ev, State: h.source.Snapshot()})
			if message == nil {
				continue
			}

			h.mu.RLock()
			clients := make([]*wsClient, 0, len(h.clients))
			for _, c := range h.clients {
				clients = append(clients, c)
			}
			h.mu.RUnlock()

			for _, c := range clients {
				if h.send(c, message) {
					h.sendView(c)
				}
			}
			IncrementWSMessages()
		}
	}
}

// Stop closes every connection and ends Run
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Broadcast queues an engine event for all clients
func (h *WebSocketHub) Broadcast(ev game.Event) {
	select {
	case h.broadcast <- ev:
	default:
		// Channel full, skip (backpressure)
		log.Printf("⚠️ WebSocket backlog full, dropping %s", ev.Type)
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHub) encode(event string, data interface{}) []byte {
	b, err := json.Marshal(WSMessage{Event: event, Data: data})
	if err != nil {
		log.Printf("⚠️ WebSocket encode %s: %v", event, err)
		return nil
	}
	return b
}

// send writes one message and drops the client on failure
func (h *WebSocketHub) send(c *wsClient, message []byte) bool {
	if message == nil {
		return false
	}
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		h.drop(c.conn)
		return false
	}
	return true
}

func (h *WebSocketHub) sendView(c *wsClient) {
	if c.playerID == "" {
		return
	}
	view, err := h.source.PlayerView(c.playerID)
	if err != nil {
		// Player was removed from the roster
		return
	}
	h.send(c, h.encode(MessagePlayerView, view))
}

func (h *WebSocketHub) drop(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[conn]
	if !ok {
		return false
	}
	h.wsLimiter.Release(client.ip)
	delete(h.clients, conn)
	conn.Close()
	return true
}

// HandleWebSocket upgrades the request. ?player=<id> adds the contestant view.
func (h *WebSocketHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := h.ClientCount(); total >= MaxWSConnectionsTotal {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	playerID := r.URL.Query().Get("player")
	if playerID != "" {
		if _, err := h.source.PlayerView(playerID); err != nil {
			writeError(w, err.Error(), statusFor(err))
			return
		}
	}

	if !h.wsLimiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		h.wsLimiter.Release(ip)
		return
	}

	client := &wsClient{conn: conn, ip: ip, playerID: playerID}
	select {
	case h.register <- client:
	case <-h.stopChan:
		h.wsLimiter.Release(ip)
		conn.Close()
		return
	}

	// Overlays are read-only; reading only detects the close
	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.stopChan:
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
