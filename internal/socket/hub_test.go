package socket

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id := r.URL.Query().Get("id")
		hub.Register(id, conn)
		defer hub.Unregister(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?id=" + id
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesEveryClient(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	hub := NewHub(log)
	srv := newHubServer(t, hub)

	a := dial(t, srv, "a")
	b := dial(t, srv, "b")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(Event{Type: EventRequisitionStatusChanged, RequestNumber: "REQ-20240315093000-ABC123", Status: "PAID"})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var got Event
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, EventRequisitionStatusChanged, got.Type)
		assert.Equal(t, "REQ-20240315093000-ABC123", got.RequestNumber)
		assert.Equal(t, "PAID", got.Status)
		assert.False(t, got.At.IsZero())
	}

	a.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_UnregisterUnknownClient(t *testing.T) {
	hub := NewHub(nil)
	hub.Unregister("missing")
	assert.Equal(t, 0, hub.Count())
	hub.Publish(Event{Type: EventWarehouseCreated})
}

func TestHub_BroadcastDropsSlowClient(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	hub := NewHub(log)
	srv := newHubServer(t, hub)

	// Client không bao giờ đọc: bộ đệm TCP đầy và writer của nó bị chặn.
	dial(t, srv, "slow")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	payload := []byte(strings.Repeat("x", 256<<10))
	start := time.Now()
	for i := 0; i < 200; i++ {
		hub.Broadcast(payload)
	}
	assert.Less(t, time.Since(start), 2*time.Second)

	require.Eventually(t, func() bool { return hub.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
	hub.Publish(Event{Type: EventWarehouseCreated})
}
