package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/trucoapp/tournament-manager/live"
	"github.com/trucoapp/tournament-manager/middleware"
	"github.com/trucoapp/tournament-manager/models"
)

type WebSocketHandler struct {
	hub       *live.Hub
	jwtSecret []byte
	upgrader  websocket.Upgrader
}

func NewWebSocketHandler(hub *live.Hub, jwtSecret string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		jwtSecret: []byte(jwtSecret),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The admin dashboard may be served from a different origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeAdmin upgrades the connection and attaches it to the live event hub.
// Record events carry player contact data, so only admin tokens get through.
// Browsers cannot set Authorization on a websocket upgrade; the token travels
// either as the "token" query parameter or behind a "bearer" subprotocol
// (Sec-WebSocket-Protocol: bearer, <token>).
func (h *WebSocketHandler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	tokenString, viaProtocol := wsToken(r)
	if tokenString == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := middleware.ParseClaims(h.jwtSecret, tokenString)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	role, err := middleware.GetUserRoleFromContext(middleware.ContextWithClaims(r.Context(), claims))
	if err != nil || role != models.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var responseHeader http.Header
	if viaProtocol {
		responseHeader = http.Header{"Sec-WebSocket-Protocol": []string{"bearer"}}
	}
	conn, err := h.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}
	live.NewClient(h.hub, conn)
}

func wsToken(r *http.Request) (token string, viaProtocol bool) {
	if t := r.URL.Query().Get("token"); t != "" {
		return t, false
	}
	parts := strings.Split(r.Header.Get("Sec-WebSocket-Protocol"), ",")
	if len(parts) == 2 && strings.TrimSpace(parts[0]) == "bearer" {
		return strings.TrimSpace(parts[1]), true
	}
	return "", false
}
