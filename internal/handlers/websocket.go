package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"archive-backend/internal/middleware"
	"archive-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams catalog change events to the owner's clients
type WebSocketHandler struct {
	hub      *services.WSHub
	verifier middleware.SessionVerifier
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, verifier middleware.SessionVerifier) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		verifier: verifier,
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	identity, err := h.verifier.VerifySession(r.Context(), token)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	userID := identity.UserID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.reply(userID, conn, services.WSMessage{Type: "error", Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "ping":
			h.reply(userID, conn, services.WSMessage{Type: "pong"})
		default:
			h.reply(userID, conn, services.WSMessage{Type: "error", Message: "Unknown message type"})
		}
	}
}

// keepAlive pings the client until done is closed
func (h *WebSocketHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(10 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) reply(userID string, conn *websocket.Conn, msg services.WSMessage) {
	if err := h.hub.Reply(userID, conn, msg); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to send WebSocket reply")
	}
}
