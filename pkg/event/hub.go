package event

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
)

// Client is one websocket subscriber with the scope it asked for at
// upgrade time.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	scope Scope
}

func NewClient(hub *Hub, conn *websocket.Conn, scope Scope) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, 16),
		scope: scope,
	}
}

// ReadPump drains the connection until the peer goes away. Subscribers
// never send anything meaningful; the read loop exists to notice closes
// and answer pings.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("Websocket read error")
			}
			break
		}
	}
}

// WritePump pumps hub messages to the peer and keeps the connection alive
// with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub tracks active subscribers and routes change events to the ones whose
// scope matches.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan ChangeEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan ChangeEvent, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a change event for delivery to matching subscribers.
func (h *Hub) Broadcast(ev ChangeEvent) {
	select {
	case h.broadcast <- ev:
	default:
		log.Warn().Str("table", string(ev.Table)).Msg("Hub broadcast queue full, dropping event")
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			log.Debug().Interface("scope", client.scope).Msg("Realtime client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Debug().Msg("Realtime client disconnected")
			}
		case ev := <-h.broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Error().Err(err).Msg("Failed to marshal change event for broadcast")
				continue
			}
			for client := range h.clients {
				if !client.scope.Matches(ev) {
					continue
				}
				select {
				case client.send <- payload:
				default:
					// Send buffer full, assume the peer is gone.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
