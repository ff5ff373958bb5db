package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub(nil)
	conn, cleanup := dialTestHub(t, hub)
	defer cleanup()

	// Registration races the broadcast without a brief wait.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast("cycle", map[string]string{"status": "success"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var envelope struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
		TS   string          `json:"ts"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Type != "cycle" || envelope.TS == "" {
		t.Errorf("unexpected envelope: %s", msg)
	}
	if !strings.Contains(string(envelope.Data), "success") {
		t.Errorf("payload missing data: %s", envelope.Data)
	}
}

func TestHub_LateClientGetsLatest(t *testing.T) {
	hub := NewHub(nil)
	hub.Broadcast("account", map[string]float64{"cash": 1000})

	conn, cleanup := dialTestHub(t, hub)
	defer cleanup()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(msg), `"account"`) {
		t.Errorf("expected cached account envelope, got %s", msg)
	}
}

func TestHub_RemoveClientIdempotent(t *testing.T) {
	hub := NewHub(nil)
	c := &Client{send: make(chan []byte, 1), hub: hub}
	hub.mu.Lock()
	hub.clients[c] = true
	hub.mu.Unlock()

	hub.RemoveClient(c)
	hub.RemoveClient(c) // second call must not panic on closed channel
	if hub.ClientCount() != 0 {
		t.Errorf("client count = %d", hub.ClientCount())
	}
}
