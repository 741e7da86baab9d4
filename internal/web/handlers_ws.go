package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"mashupctl/internal/events"
	"mashupctl/internal/store"
)

const (
	// replayLimit is how many history entries a new client receives.
	replayLimit = 20
	// clientQueue is how many frames a client may fall behind before it
	// is dropped.
	clientQueue = 64
)

// Frame kinds
const (
	frameStep    = "step"
	frameHistory = "history"
)

// consoleFrame is one message on the console stream: a live deploy step,
// or the recent history sent once on connect.
type consoleFrame struct {
	Kind    string              `json:"kind"`
	Step    *events.Event       `json:"step,omitempty"`
	History []*store.Deployment `json:"history,omitempty"`
}

type consoleClient struct {
	conn *websocket.Conn
	send chan []byte
}

// stepHub fans deploy steps out to the connected console clients.
type stepHub struct {
	mu      sync.Mutex
	clients map[*consoleClient]struct{}
	closed  bool
	logger  *slog.Logger
}

func newStepHub(logger *slog.Logger) *stepHub {
	return &stepHub{
		clients: make(map[*consoleClient]struct{}),
		logger:  logger,
	}
}

// join adds c. It reports false once the hub is closed.
func (h *stepHub) join(c *consoleClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Debug("console client connected", "total", len(h.clients))
	return true
}

// leave removes c and closes its queue, which ends its writer.
func (h *stepHub) leave(c *consoleClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
	h.logger.Debug("console client disconnected", "total", len(h.clients))
}

// drop must be called with mu held.
func (h *stepHub) drop(c *consoleClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *stepHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues ev for every client without blocking the deploy that
// emitted it. A client whose queue is full is dropped.
func (h *stepHub) Publish(ev events.Event) {
	data, err := json.Marshal(consoleFrame{Kind: frameStep, Step: &ev})
	if err != nil {
		h.logger.Error("encode console frame", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.drop(c)
			h.logger.Warn("console client dropped, queue full", "step", ev.Type, "name", ev.Name)
		}
	}
}

// Close disconnects every client and refuses new ones. Safe to call
// multiple times.
func (h *stepHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.drop(c)
	}
}

// historyFrame encodes the most recent history for a newly connected
// client, or returns nil when there is none.
func (s *Server) historyFrame() []byte {
	if s.history == nil {
		return nil
	}
	list, err := s.history.ListDeployments("", replayLimit)
	if err != nil {
		s.logger.Warn("console history replay", "err", err)
		return nil
	}
	if len(list) == 0 {
		return nil
	}
	data, err := json.Marshal(consoleFrame{Kind: frameHistory, History: list})
	if err != nil {
		return nil
	}
	return data
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if len(s.allowedOrigins) > 0 {
		opts.OriginPatterns = s.allowedOrigins
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.logger.Error("ws accept", "err", err)
		return
	}
	conn.SetReadLimit(4096)

	client := &consoleClient{conn: conn, send: make(chan []byte, clientQueue)}
	if data := s.historyFrame(); data != nil {
		client.send <- data
	}
	if !s.hub.join(client) {
		conn.Close(websocket.StatusGoingAway, "server shutdown")
		return
	}

	go writeFrames(client)

	// The stream is one-way; reads only detect disconnects.
	for {
		if _, _, err := conn.Read(context.Background()); err != nil {
			s.hub.leave(client)
			return
		}
	}
}

// writeFrames sends queued frames until the hub closes the queue.
func writeFrames(c *consoleClient) {
	for msg := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			c.conn.Close(websocket.StatusGoingAway, "write failed")
			return
		}
	}
	c.conn.Close(websocket.StatusNormalClosure, "")
}
