// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	EventRequisitionCreated       = "requisition.created"
	EventRequisitionStatusChanged = "requisition.status_changed"
	EventRequisitionDeleted       = "requisition.deleted"
	EventWarehouseCreated         = "warehouse.created"
	EventWarehouseDeleted         = "warehouse.deleted"
)

// Event is pushed to every connected admin client.
type Event struct {
	Type          string    `json:"type"`
	ID            string    `json:"id,omitempty"`
	RequestNumber string    `json:"requestNumber,omitempty"`
	Status        string    `json:"status,omitempty"`
	At            time.Time `json:"at"`
}

const (
	writeWait = 10 * time.Second
	// Số message tối đa xếp hàng cho một client trước khi bị coi là chậm.
	sendBuffer = 16
)

// client gắn một conn với hàng đợi gửi riêng; chỉ writer của nó được ghi message.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub quản lý tất cả các client WebSocket.
type Hub struct {
	// clients là một map để lưu trữ các kết nối, key là ID của client.
	clients map[string]*client
	// mu bảo vệ clients; send của một client chỉ bị đóng khi giữ khóa ghi.
	mu  sync.RWMutex
	log *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[string]*client),
		log:     log,
	}
}

func (h *Hub) Register(clientID string, conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if old, ok := h.clients[clientID]; ok {
		close(old.send)
	}
	h.clients[clientID] = c
	h.mu.Unlock()

	go h.writePump(clientID, c)
	h.log.WithField("client", clientID).Info("WebSocket client registered")
}

func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		delete(h.clients, clientID)
		close(c.send)
		h.log.WithField("client", clientID).Info("WebSocket client unregistered")
	}
}

// remove chỉ xóa đúng client c, phòng khi clientID đã được đăng ký lại.
func (h *Hub) remove(clientID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[clientID]; ok && cur == c {
		delete(h.clients, clientID)
		close(c.send)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writePump(clientID string, c *client) {
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.log.WithError(err).WithField("client", clientID).Warn("WebSocket write failed, dropping client")
			c.conn.Close()
			h.remove(clientID, c)
			for range c.send {
			}
			return
		}
	}
}

// Broadcast xếp message vào hàng đợi của mọi client mà không chờ ghi.
// Client có hàng đợi đầy sẽ bị ngắt và loại khỏi Hub.
func (h *Hub) Broadcast(message []byte) {
	type slowClient struct {
		id string
		c  *client
	}
	var slow []slowClient

	h.mu.RLock()
	for id, c := range h.clients {
		select {
		case c.send <- message:
		default:
			slow = append(slow, slowClient{id: id, c: c})
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.WithField("client", s.id).Warn("WebSocket client too slow, dropping")
		s.c.conn.Close()
		h.remove(s.id, s.c)
	}
}

// Publish implements the services' Notifier.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	message, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode websocket event")
		return
	}
	h.Broadcast(message)
}
