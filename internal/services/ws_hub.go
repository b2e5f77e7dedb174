package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed to an owner's open connections
const (
	EventItemCreated    = "item_created"
	EventItemUpdated    = "item_updated"
	EventImageUploaded  = "image_uploaded"
	EventPrimaryChanged = "primary_changed"
	EventImageDeleted   = "image_deleted"
)

const writeWait = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp,omitempty"`
	ItemID    string      `json:"item_id,omitempty"`
	ImageID   string      `json:"image_id,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// EventPublisher delivers change events to a user
type EventPublisher interface {
	Publish(userID string, msg WSMessage)
}

// wsConn serializes writes to one connection
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections, any number per user
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]map[*websocket.Conn]*wsConn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]map[*websocket.Conn]*wsConn),
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.connections[userID]
	if !ok {
		conns = make(map[*websocket.Conn]*wsConn)
		h.connections[userID] = conns
	}
	conns[conn] = &wsConn{conn: conn}

	log.Info().Str("user_id", userID).Int("connections", len(conns)).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a user
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.connections[userID]
	if !ok {
		return
	}
	if _, exists := conns[conn]; exists {
		conn.Close()
		delete(conns, conn)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
	if len(conns) == 0 {
		delete(h.connections, userID)
	}
}

// IsOnline checks if a user has at least one open connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID]) > 0
}

// SendToUser sends a message to every connection of a user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	targets := make([]*wsConn, 0, len(h.connections[userID]))
	for _, c := range h.connections[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := encode(message)
	if err != nil {
		return err
	}

	var sendErr error
	for _, c := range targets {
		if err := c.write(data); err != nil {
			h.Unregister(userID, c.conn)
			sendErr = fmt.Errorf("failed to send message: %w", err)
		}
	}
	return sendErr
}

// Reply sends a message to one connection of a user
func (h *WSHub) Reply(userID string, conn *websocket.Conn, message WSMessage) error {
	h.mu.RLock()
	target, ok := h.connections[userID][conn]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("connection of user %s is not registered", userID)
	}

	data, err := encode(message)
	if err != nil {
		return err
	}
	if err := target.write(data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func encode(message WSMessage) ([]byte, error) {
	if message.Timestamp == 0 {
		message.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	return data, nil
}

// Publish sends an event to a user if they are online
func (h *WSHub) Publish(userID string, msg WSMessage) {
	if !h.IsOnline(userID) {
		return
	}
	if err := h.SendToUser(userID, msg); err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("type", msg.Type).
			Msg("Failed to publish event")
	}
}
