package api

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"snowfight/internal/arena"
	"snowfight/internal/worker"
)

// MaxWSConnectionsTotal bounds total concurrent connections across every
// worker combined (resource accounting, spec §5).
const MaxWSConnectionsTotal = 2000

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if IsAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ websocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// wsConn adapts a gorilla websocket connection to the worker.Conn
// contract — the external collaborator boundary spec §1 describes as
// "open/message/close callbacks and a send(bytes) sink."
type wsConn struct {
	conn *websocket.Conn
	ip   string

	mu sync.Mutex // gorilla forbids concurrent writers on one connection
}

func (c *wsConn) Send(frame []byte, binary bool) error {
	msgType := websocket.TextMessage
	if binary {
		msgType = websocket.BinaryMessage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(msgType, frame)
}

func (c *wsConn) RemoteAddr() string { return c.ip }

// WebSocketGateway upgrades HTTP connections and fans them out to the
// arena's worker pool, enforcing the per-IP and total connection limits
// spec §5 calls for as resource accounting.
type WebSocketGateway struct {
	arena      *arena.Arena
	connLimit  *WebSocketRateLimiter
	activeMu   sync.Mutex
	activeConn int
}

// NewWebSocketGateway builds a gateway over the given arena.
func NewWebSocketGateway(a *arena.Arena, maxPerIP int) *WebSocketGateway {
	return &WebSocketGateway{arena: a, connLimit: NewWebSocketRateLimiter(maxPerIP)}
}

// ServeHTTP upgrades the request to a WebSocket, assigns it to a worker
// round-robin, and runs a dedicated read loop feeding that worker's
// inbox until the connection closes.
func (g *WebSocketGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := ClientIP(r)

	g.activeMu.Lock()
	total := g.activeConn
	g.activeMu.Unlock()
	if total >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_total_limit")
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !g.connLimit.Allow(ip) {
		RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.connLimit.Release(ip)
		log.Printf("⚠️ websocket upgrade error: %v", err)
		return
	}

	conn := &wsConn{conn: raw, ip: ip}
	wk := g.arena.Assign(conn)

	g.activeMu.Lock()
	g.activeConn++
	UpdateWSConnections(g.activeConn)
	g.activeMu.Unlock()

	go g.readLoop(conn, wk)
}

func (g *WebSocketGateway) readLoop(conn *wsConn, wk *worker.Worker) {
	defer func() {
		wk.EnqueueClose(conn)
		g.connLimit.Release(conn.ip)
		conn.conn.Close()

		g.activeMu.Lock()
		g.activeConn--
		UpdateWSConnections(g.activeConn)
		g.activeMu.Unlock()
	}()

	for {
		_, message, err := conn.conn.ReadMessage()
		if err != nil {
			return
		}
		wk.EnqueueMessage(conn, message)
	}
}

// AllowedOrigins is the WebSocket origin allowlist (the CORS middleware
// in router.go keeps its own origin list).
var AllowedOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://localhost:8080",
}

// IsAllowedOrigin reports whether origin may open a WebSocket connection.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if strings.HasPrefix(origin, "http://localhost") {
		return true
	}
	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
