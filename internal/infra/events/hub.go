// Package events broadcasts session progress to websocket subscribers.
package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"vision-assistant/internal/application"
)

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:  logger,
		clients: make(map[*subscriber]struct{}),
	}
}

// Publish sends e to every subscriber. Subscribers that fall behind are
// disconnected rather than slowing the caller down.
func (h *Hub) Publish(e application.Event) {
	msg, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("encoding event", "type", e.Type, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.clients {
		select {
		case s.send <- msg:
		default:
			h.logger.Warn("dropping slow event subscriber", "remote", s.conn.RemoteAddr().String())
			delete(h.clients, s)
			s.close()
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrading event stream", "error", err)
		return
	}

	s := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[s] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("event subscriber connected", "remote", conn.RemoteAddr().String())

	go h.write(s)
	h.read(s)
}

// read discards client frames and unregisters the subscriber once the
// connection goes away.
func (h *Hub) read(s *subscriber) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[s]; ok {
			delete(h.clients, s)
			s.close()
		}
		h.mu.Unlock()
		h.logger.Info("event subscriber disconnected", "remote", s.conn.RemoteAddr().String())
	}()
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) write(s *subscriber) {
	defer s.conn.Close()
	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("writing event", "error", err)
			return
		}
	}
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
