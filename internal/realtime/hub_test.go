package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newTestServer registers every upgraded connection under the user query parameter
func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		userId := r.URL.Query().Get("user")
		hub.AddClient(userId, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.RemoveClient(userId, conn)
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, userId string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?user=" + userId
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, userId string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(userId) != want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients for %s, got %d", want, userId, hub.ClientCount(userId))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastJSON_OnlyReachesUser(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub)

	conn1 := dial(t, server, "user1")
	conn2 := dial(t, server, "user2")
	waitForClients(t, hub, "user1", 1)
	waitForClients(t, hub, "user2", 1)

	hub.BroadcastJSON("user1", map[string]string{"net_worth": "100"})

	var msg map[string]string
	_ = conn1.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn1.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if msg["net_worth"] != "100" {
		t.Errorf("Unexpected message: %v", msg)
	}

	_ = conn2.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if err := conn2.ReadJSON(&msg); err == nil {
		t.Error("Expected user2 to receive nothing")
	}
}

func TestRemoveClient(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub)

	conn := dial(t, server, "user1")
	waitForClients(t, hub, "user1", 1)

	_ = conn.Close()
	waitForClients(t, hub, "user1", 0)

	// Broadcasting to a user without clients is a no-op
	hub.BroadcastJSON("user1", "ignored")
}

func TestCloseAll(t *testing.T) {
	hub := NewHub()
	server := newTestServer(t, hub)

	dial(t, server, "user1")
	dial(t, server, "user1")
	waitForClients(t, hub, "user1", 2)

	hub.CloseAll()
	if hub.ClientCount("user1") != 0 {
		t.Errorf("Expected no clients after CloseAll, got %d", hub.ClientCount("user1"))
	}
}
