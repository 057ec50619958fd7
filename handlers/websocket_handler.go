package handlers

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/Dosada05/notes-app/realtime"
	"github.com/Dosada05/notes-app/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub        *realtime.Hub
	orgService services.OrganizationService
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewWebSocketHandler: пустой allowedOrigins разрешает любой Origin (локальная разработка).
func NewWebSocketHandler(hub *realtime.Hub, orgService services.OrganizationService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		orgService: orgService,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
			},
		},
	}
}

// ServeWs подписывает боковую панель на события дерева заметок организации.
// Клиент подключается к /ws/organizations/{orgID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	orgID, userID, ok := orgAndUser(w, r)
	if !ok {
		return
	}

	if _, err := h.orgService.RequireMember(r.Context(), orgID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		h.logger.Warn("failed to upgrade websocket connection", slog.Int("org_id", orgID), slog.Any("error", err))
		return
	}

	roomID := realtime.OrganizationRoom(orgID)
	client := realtime.NewClient(h.hub, conn, roomID, userID)
	if !h.hub.Join(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client joined", slog.String("room", roomID), slog.Int("user_id", userID))
}
