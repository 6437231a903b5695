package handler

import (
	"context"
	"encoding/json"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"lokapasar/internal/adapter/api/middleware"
	ws "lokapasar/internal/infrastructure/websocket"
	"lokapasar/internal/usecase"
	"lokapasar/pkg/errors"
	"lokapasar/pkg/logger"
)

// WebSocketHandler is the UI-facing delivery edge: each connection gets its
// own relay session whose updates (new messages, unread and notification
// counts) are pushed down the socket. Dropping the socket tears the session
// down.
type WebSocketHandler struct {
	wsManager      *ws.Manager
	sessions       *usecase.SessionManager
	chatUseCase    *usecase.ChatUseCase
	notifications  *usecase.NotificationUseCase
	authMiddleware *middleware.AuthMiddleware
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Restrict in production
	},
}

func NewWebSocketHandler(
	wsManager *ws.Manager,
	sessions *usecase.SessionManager,
	chatUseCase *usecase.ChatUseCase,
	notifications *usecase.NotificationUseCase,
	authMiddleware *middleware.AuthMiddleware,
) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:      wsManager,
		sessions:       sessions,
		chatUseCase:    chatUseCase,
		notifications:  notifications,
		authMiddleware: authMiddleware,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	session, err := h.sessions.Open(context.Background(), userID, func(update usecase.SessionUpdate) {
		// The notification aggregate rides its own request/response call,
		// never the broadcast payload.
		count := h.notifications.Refresh(context.Background(), userID)

		frame, err := json.Marshal(map[string]interface{}{
			"type":               "new-message",
			"message":            update.Message,
			"unread_count":       update.Unread,
			"notification_count": count,
		})
		if err != nil {
			logger.Error("WebSocket: failed to encode update for %s: %v", userID, err)
			return
		}
		h.wsManager.SendToUser(userID, frame)
	})
	if err != nil {
		conn.Close()
		return errors.Internal("Failed to open broadcast session", err)
	}

	client := &ws.Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
	client.Teardown = func() {
		h.sessions.Release(session)
	}
	client.OnMessage = func(raw []byte) {
		h.handleClientFrame(userID, session, raw)
	}

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}

func (h *WebSocketHandler) handleClientFrame(userID string, session *usecase.Session, raw []byte) {
	var frame struct {
		Type           string `json:"type"`
		ConversationID string `json:"conversation_id"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("WebSocket: malformed frame from %s: %v", userID, err)
		return
	}

	switch frame.Type {
	case "ping":
		pong, _ := json.Marshal(map[string]string{"type": "pong"})
		h.wsManager.SendToUser(userID, pong)

	case "mark-read":
		if frame.ConversationID == "" {
			return
		}
		if _, err := h.chatUseCase.MarkConversationRead(context.Background(), userID, frame.ConversationID); err != nil {
			logger.Warn("WebSocket: mark-read failed for %s in %s: %v", userID, frame.ConversationID, err)
			return
		}
		session.ResetUnread()

		count := h.notifications.Refresh(context.Background(), userID)
		out, _ := json.Marshal(map[string]interface{}{
			"type":               "notification-count",
			"unread_count":       0,
			"notification_count": count,
		})
		h.wsManager.SendToUser(userID, out)

	default:
		logger.Debug("WebSocket: ignoring frame type %q from %s", frame.Type, userID)
	}
}
