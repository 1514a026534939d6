// internal/api/handlers/websocket_handler.go
package handlers

import (
	"net/http"
	"time"

	"requisition-form-api-server/internal/auth"
	"requisition-form-api-server/internal/socket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Thời gian chờ tối đa cho PONG hoặc tin nhắn từ client.
var pongWait = 30 * time.Second

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	Hub    *socket.Hub
	Tokens *auth.TokenIssuer
	Log    *logrus.Logger
}

// ServeWs mở luồng sự kiện cho admin. Trình duyệt không gửi được header khi mở WebSocket,
// nên token đi qua query string.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.Tokens.Parse(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	if claims.Role != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.WithError(err).Warn("Failed to upgrade connection")
		return
	}

	clientID := uuid.New().String()
	h.Hub.Register(clientID, conn)
	defer func() {
		h.Hub.Unregister(clientID)
		conn.Close()
	}()

	// Server gửi PING theo chu kỳ; mỗi PONG hoặc tin nhắn nhận được sẽ gia hạn deadline.
	wait := pongWait
	pingPeriod := wait * 9 / 10
	conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(wait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					h.Log.WithError(err).WithField("client", clientID).Debug("WebSocket ping failed")
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Vòng lặp đọc: client không gửi dữ liệu, chỉ giữ kết nối.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.WithError(err).Warn("Unexpected websocket close")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(wait))
	}
}
