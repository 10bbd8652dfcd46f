package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConfig configures a relay client.
type ClientConfig struct {
	// URL is the full relay endpoint including id and channel parameters,
	// e.g. ws://localhost:8080/ws?id=user-1&channel=hud.
	URL string
	// OnMessage receives every relayed payload. Typically wired to an
	// inbound queue's Receive.
	OnMessage func(payload []byte)
	Logger    *log.Logger
}

// Client is a relay connection implementing the outbound queue's
// Transport. Reads are pumped to OnMessage on a background goroutine.
type Client struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	onMessage func([]byte)
	logger    *log.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the relay and starts the read pump.
func Dial(ctx context.Context, cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn:      conn,
		onMessage: cfg.OnMessage,
		logger:    logger,
		done:      make(chan struct{}),
	}
	go c.readPump()
	return c, nil
}

// Send implements hudsync.Transport.
func (c *Client) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close tears the connection down; the read pump exits on its own.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Done closes when the connection has dropped.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) readPump() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Printf("ws: connection lost: %v", err)
				c.Close()
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(payload)
		}
	}
}
