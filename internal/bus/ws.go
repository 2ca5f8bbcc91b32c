package bus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WSChannel is a Channel implementation that dials a relay hub.
type WSChannel struct {
	logger *slog.Logger

	writeMu sync.Mutex
	ws      *websocket.Conn
	recv    chan Message

	closeOnce sync.Once
}

// DialWS connects to a relay hub (e.g. ws://host:port/api/sync).
func DialWS(url string, logger *slog.Logger) (*WSChannel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("bus: dial %s: %w", url, err)
	}
	c := &WSChannel{logger: logger, ws: ws, recv: make(chan Message, 64)}
	go c.readLoop()
	return c, nil
}

func (c *WSChannel) readLoop() {
	defer close(c.recv)
	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Debug("bus: connection closed", slog.String("error", err.Error()))
			return
		}
		var msg Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			c.logger.Warn("bus: dropping malformed frame", slog.String("error", err.Error()))
			continue
		}
		select {
		case c.recv <- msg:
		default:
			// Receiver not keeping up; drop. The medium is lossy.
		}
	}
}

// Publish sends a message to the hub.
func (c *WSChannel) Publish(msg Message) error {
	frame, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("bus: marshal: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("bus: publish: %w", err)
	}
	return nil
}

// Receive returns the incoming message stream.
func (c *WSChannel) Receive() <-chan Message {
	return c.recv
}

// Close closes the connection; the receive channel closes once the read
// loop observes it.
func (c *WSChannel) Close() {
	c.closeOnce.Do(func() {
		c.ws.Close()
	})
}
