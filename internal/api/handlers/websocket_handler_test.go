package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"requisition-form-api-server/config"
	"requisition-form-api-server/internal/auth"
	"requisition-form-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeWs_IdleClientStaysConnected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	orig := pongWait
	pongWait = 300 * time.Millisecond
	t.Cleanup(func() { pongWait = orig })

	log := logrus.New()
	log.SetOutput(io.Discard)
	tokens, err := auth.NewTokenIssuer(config.JWTConfig{Secret: "ws-secret", Expiration: "1h"})
	require.NoError(t, err)
	hub := socket.NewHub(log)

	router := gin.New()
	h := &WebSocketHandler{Hub: hub, Tokens: tokens, Log: log}
	router.GET("/ws", h.ServeWs)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	token, _, err := tokens.Issue(auth.RoleAdmin)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Client không gửi gì; chỉ trả lời PING khi đang đọc.
	time.AfterFunc(4*pongWait, func() {
		hub.Publish(socket.Event{Type: socket.EventRequisitionCreated, RequestNumber: "REQ-20240315093000-ABC123"})
	})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got socket.Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, socket.EventRequisitionCreated, got.Type)
	assert.Equal(t, 1, hub.Count())
}
