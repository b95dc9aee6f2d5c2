// Package ws fans committed table documents out to websocket watchers.
// Watchers are read-only: commands go through the REST surface, and every
// commit lands here via the store's pub/sub channel.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/chalkitup/backend/internal/chalk"
	"github.com/chalkitup/backend/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is vetted by middleware.WebSocketCORSCheck.
	},
}

// Client is one connected watcher of one table.
type Client struct {
	conn    *websocket.Conn
	tableID string
	send    chan []byte
}

// room groups every watcher of a single table around one store subscription.
type room struct {
	clients map[*Client]bool
	sub     *store.TableSubscription
}

// Hub maintains per-table rooms. The first watcher of a table opens a store
// subscription; the last one out closes it.
type Hub struct {
	store      *store.Store
	rooms      map[string]*room
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates the hub and starts its run loop.
func NewHub(st *store.Store) *Hub {
	h := &Hub{
		store:      st,
		rooms:      make(map[string]*room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	go h.run()
	return h
}

type event struct {
	Type  string       `json:"type"`
	Table *chalk.Table `json:"table"`
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			r, exists := h.rooms[client.tableID]
			if !exists {
				r = &room{
					clients: make(map[*Client]bool),
					sub:     h.store.SubscribeTable(context.Background(), client.tableID),
				}
				h.rooms[client.tableID] = r
				go h.relay(client.tableID, r.sub)
				log.Printf("[WS] opened stream for table %s", client.tableID)
			}
			r.clients[client] = true
			h.mu.Unlock()

			log.Printf("[WS] watcher joined table %s", client.tableID)

			// Fresh snapshot for the new watcher only. It may race a
			// broadcast from the relay; clients order frames by ver.
			tbl, err := h.store.GetTable(context.Background(), client.tableID)
			if err != nil {
				log.Printf("[WS] snapshot read for table %s failed: %v", client.tableID, err)
				continue
			}
			data, err := json.Marshal(event{Type: "table_state", Table: tbl})
			if err != nil {
				log.Printf("[WS] snapshot encode for table %s failed: %v", client.tableID, err)
				continue
			}
			select {
			case client.send <- data:
			default:
				log.Printf("[WS] snapshot dropped for table %s (buffer full)", client.tableID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if r, exists := h.rooms[client.tableID]; exists && r.clients[client] {
				delete(r.clients, client)
				close(client.send)
				log.Printf("[WS] watcher left table %s", client.tableID)
				if len(r.clients) == 0 {
					if err := r.sub.Close(); err != nil {
						log.Printf("[WS] closing stream for table %s: %v", client.tableID, err)
					}
					delete(h.rooms, client.tableID)
					log.Printf("[WS] closed stream for table %s", client.tableID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// relay forwards every committed document for one table into its room. It
// exits when the room's subscription is closed.
func (h *Hub) relay(tableID string, sub *store.TableSubscription) {
	for tbl := range sub.Updates() {
		data, err := json.Marshal(event{Type: "table_update", Table: tbl})
		if err != nil {
			log.Printf("[WS] update encode for table %s failed: %v", tableID, err)
			continue
		}
		h.broadcast(tableID, data)
	}
}

// broadcast queues a frame to every watcher in a room, dropping it for
// watchers whose buffers are full.
func (h *Hub) broadcast(tableID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r, exists := h.rooms[tableID]
	if !exists {
		return
	}
	for client := range r.clients {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] dropped update for a watcher of table %s (buffer full)", tableID)
		}
	}
}

// HandleWebSocket upgrades a watcher connection for one table.
func HandleWebSocket(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID := c.Param("tableId")

		if _, err := h.store.GetTable(c.Request.Context(), tableID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "table not found", "code": "not_found"})
				return
			}
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "table lookup failed", "code": "unavailable"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:    conn,
			tableID: tableID,
			send:    make(chan []byte, 256),
		}

		h.register <- client

		go client.writePump()
		go client.readPump(h)
	}
}

// writePump writes queued frames and keep-alive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Channel closed by the hub. Best-effort close frame.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error on table %s: %v", c.tableID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error on table %s: %v", c.tableID, err)
				return
			}
		}
	}
}

// readPump consumes the connection's read side. The stream is one-way, so
// data frames are discarded; the loop exists to process control frames and
// to notice when the watcher goes away.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] read error on table %s: %v", c.tableID, err)
			}
			break
		}
	}
}
