package services

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// eventHub fans round summaries out to WebSocket subscribers. Slow or dead
// subscribers are dropped rather than blocking the broadcast.
type eventHub struct {
	logger   hclog.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	subs   map[*websocket.Conn]chan federation.RoundSummary
	closed bool
}

func newEventHub(logger hclog.Logger) *eventHub {
	return &eventHub{
		logger: logger.Named("events"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[*websocket.Conn]chan federation.RoundSummary),
	}
}

func (h *eventHub) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ch := make(chan federation.RoundSummary, 16)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.subs[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)

	// Reads are discarded; the read loop exists to detect disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.remove(conn)
				return
			}
		}
	}()
}

func (h *eventHub) writeLoop(conn *websocket.Conn, ch chan federation.RoundSummary) {
	for summary := range ch {
		if err := conn.WriteJSON(summary); err != nil {
			h.remove(conn)
			return
		}
	}
	conn.Close()
}

func (h *eventHub) broadcast(summary federation.RoundSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.subs {
		select {
		case ch <- summary:
		default:
			delete(h.subs, conn)
			close(ch)
		}
	}
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[conn]; ok {
		delete(h.subs, conn)
		close(ch)
	}
	conn.Close()
}

func (h *eventHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for conn, ch := range h.subs {
		delete(h.subs, conn)
		close(ch)
	}
}
