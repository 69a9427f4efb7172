package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	maxClients   = 32
)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // one writer at a time
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

// Hub pushes JSON messages to every connected browser.
type Hub struct {
	upgrader websocket.Upgrader
	messages chan any

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a hub. Run must be started for messages to be delivered.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		messages: make(chan any, 64),
		clients:  make(map[*client]struct{}),
	}
}

// Broadcast queues msg for delivery. It never blocks: when the queue is full the message is dropped,
// since every message only asks browsers to refresh.
func (h *Hub) Broadcast(msg any) {
	select {
	case h.messages <- msg:
	default:
		log.Debug().Msg("Preview broadcast queue full, dropping message")
	}
}

// Len is the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run delivers queued messages until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case msg := <-h.messages:
			h.send(msg)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) send(msg any) {
	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()
		return
	}
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal preview message")
		return
	}

	for _, c := range clients {
		if err := c.write(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Msg("Dropping preview client")
			h.remove(c)
			c.conn.Close()
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		delete(h.clients, c)
	}
}

// ServeWS upgrades the request and keeps the connection alive until the browser leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.Len() >= maxClients {
		http.Error(w, "Maximum clients reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Debug().Str("remote", r.RemoteAddr).Msg("Preview client connected")

	defer func() {
		h.remove(c)
		conn.Close()
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	// Reading is required to notice disconnects and to process pongs.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Debug().Err(err).Msg("Preview client read error")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readDone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
