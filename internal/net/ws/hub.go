// Package ws carries HUD update batches between clients. The Hub is a
// relay: it never inspects payloads, it fans every message out to the
// other clients on the same channel. The Client is the hudsync.Transport
// used by the HUD controller.
package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Hub tracks the connected clients per channel and relays their
// messages to everyone else on the channel.
type Hub struct {
	mu       sync.Mutex
	logger   *log.Logger
	channels map[string]map[string]*subscriber
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub creates a hub with no channels.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{logger: logger, channels: make(map[string]map[string]*subscriber)}
}

// Subscribe registers a connection on a channel. An existing connection
// under the same client id is closed and replaced.
func (h *Hub) Subscribe(channel, clientID string, conn *websocket.Conn) {
	h.mu.Lock()
	subs, ok := h.channels[channel]
	if !ok {
		subs = make(map[string]*subscriber)
		h.channels[channel] = subs
	}
	existing := subs[clientID]
	subs[clientID] = &subscriber{conn: conn}
	h.mu.Unlock()

	if existing != nil {
		existing.conn.Close()
	}
}

// Unsubscribe drops a client and closes its connection. When conn is
// non-nil the client is only removed if it still holds that connection,
// so a handler whose connection was replaced cannot evict its successor.
// Empty channels are removed.
func (h *Hub) Unsubscribe(channel, clientID string, conn *websocket.Conn) {
	h.mu.Lock()
	subs := h.channels[channel]
	sub, ok := subs[clientID]
	if ok && conn != nil && sub.conn != conn {
		ok = false
	}
	if ok {
		delete(subs, clientID)
		if len(subs) == 0 {
			delete(h.channels, channel)
		}
	}
	h.mu.Unlock()

	if ok {
		sub.conn.Close()
	}
}

// ClientCount reports how many clients are on a channel.
func (h *Hub) ClientCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[channel])
}

// Relay sends a payload to every client on the channel except the
// sender. Subscribers that fail a write are dropped.
func (h *Hub) Relay(channel, senderID string, data []byte) {
	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.channels[channel]))
	for id, sub := range h.channels[channel] {
		if id == senderID {
			continue
		}
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			h.logger.Printf("ws: failed to relay to %s on %s: %v", id, channel, err)
			h.Unsubscribe(channel, id, sub.conn)
		}
	}
}
