package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go-cake-store/internal/model"
	"go-cake-store/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live connection owned by a (tenant, user) pair.
type Client struct {
	Conn     Conn
	TenantID uint
	UserID   uint
}

type owner struct {
	tenantID uint
	userID   uint
}

type message struct {
	to      owner
	payload []byte
}

// Hub routes cart events to the connections of the cart owner only.
type Hub struct {
	clients    map[owner]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	outbox     chan message
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[owner]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbox:     make(chan message, 256),
		done:       make(chan struct{}),
	}
}

// Join adds c to the hub. It reports false once the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Leave removes c. It returns immediately when the hub has stopped.
func (h *Hub) Leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Run(ctx context.Context) {
	log := logger.GetLogger().Named("ws")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			key := owner{c.TenantID, c.UserID}
			h.mutex.Lock()
			if h.clients[key] == nil {
				h.clients[key] = make(map[*Client]bool)
			}
			h.clients[key][c] = true
			h.mutex.Unlock()
			log.Debug("client connected", zap.Uint("tenant_id", c.TenantID), zap.Uint("user_id", c.UserID))

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.outbox:
			h.mutex.RLock()
			targets := make([]*Client, 0, len(h.clients[m.to]))
			for c := range h.clients[m.to] {
				targets = append(targets, c)
			}
			h.mutex.RUnlock()

			for _, c := range targets {
				if err := c.Conn.WriteMessage(websocket.TextMessage, m.payload); err != nil {
					log.Debug("dropping client after write failure", zap.Error(err))
					h.remove(c)
				}
			}
		}
	}
}

// NotifyCart queues event for the owner's connections. It never blocks; when
// the outbox is full the event is dropped.
func (h *Hub) NotifyCart(tenantID, userID uint, event model.CartEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.GetLogger().Error("marshal cart event", zap.Error(err))
		return
	}
	select {
	case h.outbox <- message{to: owner{tenantID, userID}, payload: payload}:
	default:
		logger.GetLogger().Warn("ws outbox full, dropping cart event",
			zap.Uint("tenant_id", tenantID), zap.Uint("user_id", userID))
	}
}

// Connections returns how many live connections a cart owner has.
func (h *Hub) Connections(tenantID, userID uint) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[owner{tenantID, userID}])
}

func (h *Hub) remove(c *Client) {
	key := owner{c.TenantID, c.UserID}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if set, ok := h.clients[key]; ok && set[c] {
		delete(set, c)
		c.Conn.Close()
		if len(set) == 0 {
			delete(h.clients, key)
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for key, set := range h.clients {
		for c := range set {
			c.Conn.Close()
		}
		delete(h.clients, key)
	}
}
