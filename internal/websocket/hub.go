// Package websocket pushes cache invalidations to connected dashboards.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// auth is the token query param, not the origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Invalidation tells a dashboard that a resource changed and should be refetched
type Invalidation struct {
	Type     string `json:"type"`
	Resource string `json:"resource"`
	ID       string `json:"id,omitempty"`
}

// Subscriber is one connected dashboard. An empty resource list receives everything.
type Subscriber struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	resources []string
}

func (s *Subscriber) wants(resource string) bool {
	if len(s.resources) == 0 {
		return true
	}
	for _, r := range s.resources {
		if r == resource {
			return true
		}
	}
	return false
}

type delivery struct {
	resource string
	payload  []byte
}

// Hub fans invalidations out to subscribers
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
	broadcast   chan delivery
	register    chan *Subscriber
	unregister  chan *Subscriber
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		broadcast:   make(chan delivery, 64),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
	}
}

// Run is the dispatch loop; start it once in its own goroutine
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.subscribers[s] = struct{}{}
			h.mu.Unlock()
			log.Printf("Dashboard subscribed to %v", s.resources)
		case s := <-h.unregister:
			h.mu.Lock()
			h.drop(s)
			h.mu.Unlock()
		case d := <-h.broadcast:
			h.mu.Lock()
			for s := range h.subscribers {
				if !s.wants(d.resource) {
					continue
				}
				select {
				case s.send <- d.payload:
				default:
					// a subscriber this far behind reconnects and refetches
					h.drop(s)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with mu held
func (h *Hub) drop(s *Subscriber) {
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}

// Invalidate queues a message for every interested subscriber. When the
// broadcast buffer is full the message is dropped rather than blocking the
// committed mutation that called it.
func (h *Hub) Invalidate(resource string, id uuid.UUID) {
	msg := Invalidation{Type: "invalidate", Resource: resource}
	if id != uuid.Nil {
		msg.ID = id.String()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("websocket: encode invalidation: %v", err)
		return
	}
	select {
	case h.broadcast <- delivery{resource: resource, payload: payload}:
	default:
		log.Printf("websocket: broadcast buffer full, dropped %s invalidation", resource)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for close and pong frames
func (s *Subscriber) readPump() {
	defer func() {
		s.hub.unregister <- s
		_ = s.conn.Close()
	}()
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket: %v", err)
			}
			return
		}
	}
}

// parseResources reads ?resources=rfqs,quotations
func parseResources(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// ServeWs authenticates the token query param and subscribes the connection
func ServeWs(hub *Hub, c *gin.Context, validate func(token string) error) {
	token := c.Query("token")
	if token == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err := validate(token); err != nil {
		log.Println("WebSocket connection rejected:", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}
	s := &Subscriber{hub: hub, conn: conn, send: make(chan []byte, sendBuffer), resources: parseResources(c.Query("resources"))}
	hub.register <- s

	go s.writePump()
	go s.readPump()
}
