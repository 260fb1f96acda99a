package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// eventHub fans bridge events out to WebSocket clients. Slow clients are
// evicted rather than allowed to back up the feed.
type eventHub struct {
	logger *slog.Logger
	feed   chan interface{}

	mu      sync.Mutex
	clients map[*wsClient]struct{}

	done     chan struct{}
	stopOnce sync.Once
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newEventHub(logger *slog.Logger) *eventHub {
	return &eventHub{
		logger:  logger,
		feed:    make(chan interface{}, 256),
		clients: make(map[*wsClient]struct{}),
		done:    make(chan struct{}),
	}
}

// run drains the feed until stop is called, then closes every client.
func (h *eventHub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case msg := <-h.feed:
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("ws marshal", "err", err)
				continue
			}
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn("ws client evicted (too slow)")
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *eventHub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// broadcast queues a message for all clients, dropping it when the feed is
// full.
func (h *eventHub) broadcast(msg interface{}) {
	select {
	case h.feed <- msg:
	default:
		h.logger.Warn("ws feed full, dropping event")
	}
}

// add registers a client unless the hub is already stopped.
func (h *eventHub) add(client *wsClient) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("ws client connected", "total", total)
	return true
}

// remove drops a client; its send channel is closed exactly once.
func (h *eventHub) remove(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("ws client disconnected", "total", total)
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

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	if !s.hub.add(client) {
		conn.Close(websocket.StatusGoingAway, "server shutdown")
		return
	}

	go s.wsWritePump(client)
	s.wsReadPump(client)
}

func (s *Server) wsWritePump(client *wsClient) {
	for msg := range client.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := client.conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			return
		}
	}
	// Channel closed by the hub.
	client.conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) wsReadPump(client *wsClient) {
	defer s.hub.remove(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-s.hub.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	// Clients only listen; any read error ends the session.
	for {
		if _, _, err := client.conn.Read(ctx); err != nil {
			return
		}
	}
}
