package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpatrickfarrell/jat/internal/logging"
	"github.com/jpatrickfarrell/jat/internal/signal"
	"github.com/jpatrickfarrell/jat/internal/state"
	"github.com/sirupsen/logrus"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is a local tool; cross-origin browsers are allowed
	// the same as the CORS headers on the JSON API.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StateUpdate is the message pushed to websocket clients when a signal
// changes a session's state.
type StateUpdate struct {
	Session string         `json:"session"`
	Type    string         `json:"type"`
	State   state.Activity `json:"state"`
	Label   string         `json:"label"`
	Color   string         `json:"color"`
}

// Hub fans signal updates out to connected websocket clients.
type Hub struct {
	store     *signal.Store
	overrides *state.OverrideStore
	log       *logrus.Entry

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan StateUpdate
}

// NewHub creates a Hub over the signal store.
func NewHub(store *signal.Store, overrides *state.OverrideStore) *Hub {
	return &Hub{
		store:     store,
		overrides: overrides,
		log:       logging.NewLogger("ws"),
		clients:   make(map[*wsClient]struct{}),
	}
}

// Run consumes the store's signal feed until the subscription channel
// closes. It also clears optimistic overrides that incoming signals
// satisfy, so overrides expire even with no page open.
func (h *Hub) Run() func() {
	ch, cancel := h.store.Subscribe()
	go func() {
		for sig := range ch {
			resolved := state.FromSignalType(sig.Type)
			h.overrides.Observe(sig.Session, resolved)

			meta := state.MetaFor(resolved)
			h.broadcast(StateUpdate{
				Session: sig.Session,
				Type:    sig.Type,
				State:   resolved,
				Label:   meta.Label,
				Color:   meta.Color,
			})
		}
	}()
	return cancel
}

// broadcast queues an update for every client, dropping it for clients
// whose send buffer is full.
func (h *Hub) broadcast(update StateUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- update:
		default:
		}
	}
}

// ServeHTTP upgrades GET /ws requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan StateUpdate, 16)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writePump(client)
	go h.readPump(client)
}

// writePump pushes updates and pings until the client goes away.
func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()

	for {
		select {
		case update, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(update); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(c *wsClient) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// drop removes a client; safe to call from both pumps.
func (h *Hub) drop(c *wsClient) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if present {
		_ = c.conn.Close()
	}
}
