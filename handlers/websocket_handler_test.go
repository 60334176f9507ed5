package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trucoapp/tournament-manager/live"
	"github.com/trucoapp/tournament-manager/models"
)

const wsTestSecret = "test-secret"

func signTestToken(t *testing.T, role models.UserRole) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(wsTestSecret))
	require.NoError(t, err)
	return signed
}

func startWSServer(t *testing.T) (*httptest.Server, *live.Hub) {
	t.Helper()
	hub := live.NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	handler := NewWebSocketHandler(hub, wsTestSecret)
	server := httptest.NewServer(http.HandlerFunc(handler.ServeAdmin))
	t.Cleanup(server.Close)
	return server, hub
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestServeAdminRejectsMissingToken(t *testing.T) {
	server, _ := startWSServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.Error(t, err)
	require.Nil(t, conn)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeAdminRejectsNonAdminRole(t *testing.T) {
	server, _ := startWSServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(
		wsURL(server)+"?token="+signTestToken(t, models.RolePlayer), nil,
	)
	require.Error(t, err)
	require.Nil(t, conn)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServeAdminRejectsForgedToken(t *testing.T) {
	server, _ := startWSServer(t)

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 1,
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	conn, resp, dialErr := websocket.DefaultDialer.Dial(wsURL(server)+"?token="+signed, nil)
	require.Error(t, dialErr)
	require.Nil(t, conn)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeAdminDeliversEvents(t *testing.T) {
	server, hub := startWSServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(
		wsURL(server)+"?token="+signTestToken(t, models.RoleAdmin), nil,
	)
	require.NoError(t, err)
	defer conn.Close()

	// The registration travels through the hub's channel; give it a moment
	// before publishing.
	time.Sleep(100 * time.Millisecond)
	hub.Publish("record.submitted", map[string]string{"ticket_id": "TRU-1-AAAAAAAAA"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var event live.Event
	require.NoError(t, json.Unmarshal(frame, &event))
	assert.Equal(t, "record.submitted", event.Type)
}

func TestServeAdminAcceptsSubprotocolToken(t *testing.T) {
	server, _ := startWSServer(t)

	dialer := websocket.Dialer{Subprotocols: []string{"bearer", signTestToken(t, models.RoleAdmin)}}
	conn, resp, err := dialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "bearer", resp.Header.Get("Sec-WebSocket-Protocol"))
}
