package handlers

import (
	"net/http"

	"vibely/internal/auth"
	"vibely/internal/services"
	ws "vibely/internal/websocket"
	"vibely/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService     *auth.Service
	chatroomService *services.ChatroomService
	hubManager      *ws.Manager
	upgrader        websocket.Upgrader
}

// NewWebSocketHandlers builds the realtime endpoint. allowedOrigin "*" accepts any origin.
func NewWebSocketHandlers(authService *auth.Service, chatroomService *services.ChatroomService, hubManager *ws.Manager, allowedOrigin string) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService:     authService,
		chatroomService: chatroomService,
		hubManager:      hubManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// HandleWebSocket upgrades an authenticated request. Rooms are joined later
// with joinRoom frames, so one socket serves every chat the user opens.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		jsonError(w, http.StatusUnauthorized, "missing token")
		return
	}

	user, err := h.authService.GetUserFromToken(r.Context(), tokenStr)
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client, err := ws.NewClient(h.hubManager, h.chatroomService, conn, user.ID)
	if err != nil {
		logger.Error("Error creating client: %v", err)
		conn.Close()
		return
	}
	logger.Debug("User %s connected as %s", user.ID, client.ID())

	go client.WritePump()
	go client.ReadPump()
}
