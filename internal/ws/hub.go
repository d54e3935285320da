package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pliu/roomchat/internal/middleware"
	"github.com/pliu/roomchat/internal/objectid"
	"github.com/pliu/roomchat/internal/roomtoken"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var ErrClosed = errors.New("ws: hub closed")

// RoomOpener decodes and decrypts an encoded room token.
type RoomOpener interface {
	Open(encoded string) (roomtoken.Token, error)
}

// Client is a single accepted connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID objectid.ID
	roomID string
	done   chan struct{}
}

// Hub accepts WebSocket connections and keeps track of them until they
// disconnect. Messages sent by clients are read and dropped.
type Hub struct {
	rooms    RoomOpener
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub(rooms RoomOpener, log *slog.Logger) *Hub {
	return &Hub{
		rooms: rooms,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*Client]struct{}),
	}
}

// ServeWs upgrades an authenticated request. When a room query parameter
// is present the caller must be one of the participants bound into the
// token.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var roomID string
	if room := r.URL.Query().Get("room"); room != "" {
		token, err := h.rooms.Open(room)
		if err != nil || !token.Binds(userID) {
			h.log.Warn("rejected room token", "user_id", userID.String(), "error", err)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		roomID = token.RoomID
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, userID: userID, roomID: roomID, done: make(chan struct{})}
	if err := h.register(client); err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.log.Info("Client connected", "user_id", userID.String(), "room_id", roomID)

	go client.writePump()
	client.readPump()
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		c.conn.Close()
	}
	return nil
}

func (h *Hub) register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.clients[c] = struct{}{}
	return nil
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.done)
	}
}

// readPump drains the connection until it fails. Pongs push the read
// deadline forward.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		c.hub.log.Info("Client disconnected", "user_id", c.userID.String())
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("websocket read failed", "user_id", c.userID.String(), "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
