// Package realtime pushes change events to connected websocket clients.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/anonto42/syrena/backend/internal/metrics"
	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

type client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// Hub tracks open connections per user. Publish never blocks: a client whose
// buffer is full is disconnected and expected to reconnect and re-query.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uuid.UUID]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHub(logger *zap.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		clients: make(map[uuid.UUID]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// Connect upgrades the request and registers the connection for userID.
func (h *Hub) Connect(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// Publish sends event to every connection of each recipient.
func (h *Hub) Publish(event models.ChangeEvent, recipients ...uuid.UUID) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode change event", zap.Error(err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, id := range recipients {
		for c := range h.clients[id] {
			select {
			case c.send <- msg:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow realtime client", zap.Stringer("user_id", c.userID))
		h.unregister(c)
	}
}

// ClientCount returns the number of open connections for userID.
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	metrics.WebsocketClients.Inc()
}

func (h *Hub) unregister(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		if set, ok := h.clients[c.userID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
		h.mu.Unlock()
		close(c.send)
		metrics.WebsocketClients.Dec()
	})
}

// readPump only services control frames; clients do not send data.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("realtime read", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}
