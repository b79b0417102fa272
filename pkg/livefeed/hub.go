package livefeed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

const writeWait = 5 * time.Second

type client struct {
	conn *websocket.Conn
	// gorilla connections allow one concurrent writer
	mu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeLocked(payload)
}

// c.mu must be held
func (c *client) writeLocked(payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub rebroadcasts stored readings to websocket subscribers. Messages use
// the same JSON shape a Listener consumes, so collectors can be chained.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]*client
	latest  []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*websocket.Conn]*client),
	}
}

// ServeHTTP upgrades the request, sends the latest batch immediately and
// keeps the subscriber until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade error", zap.Error(err))
		return
	}

	// Broadcasts that see this client queue behind the replay.
	c := &client{conn: conn}
	c.mu.Lock()
	h.mu.Lock()
	h.clients[conn] = c
	latest := h.latest
	h.mu.Unlock()

	if latest != nil {
		err = c.writeLocked(latest)
	}
	c.mu.Unlock()
	if err != nil {
		h.remove(conn)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			return
		}
	}
}

func (h *Hub) Broadcast(readings []types.Reading) {
	if len(readings) == 0 {
		return
	}
	payload, err := json.Marshal(readings)
	if err != nil {
		h.logger.Error("Failed to encode readings", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.latest = payload
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(payload); err != nil {
			h.remove(c.conn)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}
