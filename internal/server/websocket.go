package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/conneroisu/cheatsheet/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client is one connected live-reload page.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub fans reload messages out to every connected client.
type Hub struct {
	clients    map[string]*Client
	mutex      sync.RWMutex
	broadcast  chan []byte
	register   chan *Client
	unregister chan string
	done       chan struct{}
	logger     logging.Logger
}

func newHub(logger logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan string),
		done:       make(chan struct{}),
		logger:     logger.WithComponent("hub"),
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Broadcast(ctx context.Context, msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Debug(ctx, "Dropping broadcast, queue is full")
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.id] = client
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info(ctx, "Client connected", "client", client.id, "clients", count)

		case id := <-h.unregister:
			h.mutex.Lock()
			if client, ok := h.clients[id]; ok {
				delete(h.clients, id)
				close(client.send)
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info(ctx, "Client disconnected", "client", id, "clients", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow client
					delete(h.clients, id)
					close(client.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 256),
		hub:  s.hub,
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	// The request context ends when the handler returns, so the pumps get
	// their own.
	ctx := context.WithoutCancel(r.Context())
	go client.writePump(ctx)
	go client.readPump(ctx)
}

// checkOrigin accepts same-host pages, loopback pages on the server's port
// and the configured allowed origins.
func (s *PreviewServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return false
	}

	if strings.EqualFold(originURL.Host, r.Host) {
		return true
	}
	for _, allowed := range s.originPatterns() {
		if strings.EqualFold(originURL.Host, allowed) {
			return true
		}
	}
	return false
}

// originPatterns lists the hosts allowed to open a WebSocket besides the
// request host itself.
func (s *PreviewServer) originPatterns() []string {
	port := s.config.Server.Port
	patterns := []string{
		s.config.Server.Addr(),
		"localhost:" + strconv.Itoa(port),
		"127.0.0.1:" + strconv.Itoa(port),
	}
	for _, origin := range s.config.Server.AllowedOrigins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}

// readPump drains the connection so pings and close frames are handled.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c.id:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		readCtx, cancel := context.WithTimeout(ctx, pongWait)
		_, _, err := c.conn.Read(readCtx)
		cancel()

		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.hub.logger.Debug(ctx, "WebSocket read ended", "client", c.id, "error", err.Error())
			}
			return
		}
	}
}

// writePump sends queued messages and keeps the connection alive.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug(ctx, "WebSocket write failed", "client", c.id, "error", err.Error())
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
