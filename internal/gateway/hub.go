// Package gateway fans cycle results and account updates out to WebSocket
// stream clients.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"trading-agentv1/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Browser dashboards connect cross-origin; auth is out of scope here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub manages stream clients and broadcasts JSON envelopes to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	latest map[string]json.RawMessage // last envelope per message type

	prom *metrics.Metrics
}

// NewHub creates an empty hub. prom may be nil.
func NewHub(prom *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		latest:  make(map[string]json.RawMessage),
		prom:    prom,
	}
}

// Broadcast sends a typed envelope {type, data, ts} to every connected
// client. Slow clients are skipped; they catch up from the latest cache on
// reconnect.
func (h *Hub) Broadcast(msgType string, data any) {
	envelope, err := json.Marshal(map[string]any{
		"type": msgType,
		"data": data,
		"ts":   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		log.Printf("[gateway] marshal %s envelope: %v", msgType, err)
		return
	}

	h.mu.Lock()
	h.latest[msgType] = envelope
	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
			if h.prom != nil {
				h.prom.StreamDropsTotal.Inc()
			}
		}
	}
	h.mu.Unlock()
}

// HandleWS upgrades the request and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.setClientGauge(count)

	log.Printf("[gateway] ws client connected (%d total)", count)

	client.sendLatest()
	go client.writePump()
	go client.readPump()
}

// RemoveClient unregisters a client and closes its send channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	h.setClientGauge(count)
	close(c.send)
}

// ClientCount returns the number of connected stream clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) setClientGauge(count int) {
	if h.prom != nil {
		h.prom.StreamClients.Set(float64(count))
	}
}
