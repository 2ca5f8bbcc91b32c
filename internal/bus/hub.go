package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// Hub is the websocket relay other replicas dial. Every frame received
// from one connection is forwarded to every other connection and to the
// hub's own local endpoint. Frames to slow consumers are dropped,
// matching the lossy channel model.
type Hub struct {
	logger *slog.Logger

	mu          sync.Mutex
	conns       map[*hubConn]struct{}
	local       *hubLocal
	localClosed bool
}

type hubConn struct {
	ws   *websocket.Conn
	send chan []byte
}

// NewHub creates an empty relay.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{logger: logger, conns: make(map[*hubConn]struct{})}
	h.local = &hubLocal{h: h, recv: make(chan Message, 64)}
	return h
}

// Local returns the channel endpoint the hub node's own replica uses.
// Local publications relay to every dialed-in replica; frames from
// dialed replicas are delivered here as well as to each other.
func (h *Hub) Local() Channel {
	return h.local
}

// ServeHTTP upgrades the request and relays frames until the peer
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("sync hub: upgrade failed", slog.String("error", err.Error()))
		return
	}
	conn := &hubConn{ws: ws, send: make(chan []byte, 64)}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.logger.Debug("sync hub: replica connected", slog.Int("replicas", n))

	go conn.writeLoop()

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		close(conn.send)
		ws.Close()
		h.logger.Debug("sync hub: replica disconnected")
	}()

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			return
		}
		h.relay(conn, frame)
		h.deliverLocal(frame)
	}
}

func (h *Hub) relay(from *hubConn, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if conn == from {
			continue
		}
		select {
		case conn.send <- frame:
		default:
			// Slow consumer; drop the frame.
		}
	}
}

// deliverLocal decodes a remote frame for the hub node's own endpoint.
func (h *Hub) deliverLocal(frame []byte) {
	var msg Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		h.logger.Warn("sync hub: dropping malformed frame", slog.String("error", err.Error()))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.localClosed {
		return
	}
	select {
	case h.local.recv <- msg:
	default:
		// Local endpoint not keeping up; drop. The medium is lossy.
	}
}

// hubLocal is the hub node's own Channel endpoint.
type hubLocal struct {
	h    *Hub
	recv chan Message
}

func (l *hubLocal) Publish(msg Message) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("bus: marshal: %w", err)
	}
	l.h.relay(nil, frame)
	return nil
}

func (l *hubLocal) Receive() <-chan Message {
	return l.recv
}

func (l *hubLocal) Close() {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	if !l.h.localClosed {
		l.h.localClosed = true
		close(l.recv)
	}
}

func (c *hubConn) writeLoop() {
	for frame := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}
