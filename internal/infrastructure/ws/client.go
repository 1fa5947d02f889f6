package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Options struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func DefaultOptions() Options {
	return Options{
		SendBuffer:     64,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = d.PongWait
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	return o
}

// Client is one live websocket connection. ID is the transient connection
// identifier handed to the lifecycle engine.
type Client struct {
	ID   string
	conn *connWrapper
	send chan *Message
	opts Options

	mu     sync.Mutex
	closed bool
}

// NewClient wraps conn. conn may be nil for clients that are only fed
// through the hub.
func NewClient(conn *websocket.Conn, id string, opts Options) *Client {
	opts = opts.withDefaults()

	c := &Client{
		ID:   id,
		send: make(chan *Message, opts.SendBuffer), // buffered to avoid dead-locks on slow clients
		opts: opts,
	}
	if conn != nil {
		c.conn = newConnWrapper(conn)
	}

	return c
}

// Send queues msg without blocking. It reports false when the buffer is full
// or the client is gone.
func (c *Client) Send(msg *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) Outbound() <-chan *Message {
	return c.send
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump decodes frames and hands them to handle until the connection
// fails. A clean close returns nil.
func (c *Client) ReadPump(handle func(*Inbound)) error {
	raw := c.conn.conn
	raw.SetReadLimit(c.opts.MaxMessageSize)
	_ = raw.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("ws read (client %s): %w", c.ID, err)
			}
			return nil
		}

		// undecodable frames reach the handler as an empty event
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			in = Inbound{}
		}

		handle(&in)
	}
}

// WritePump drains the send buffer and keeps the connection alive with
// pings. It returns when the hub closes the client or a write fails.
func (c *Client) WritePump() error {
	ticker := time.NewTicker(c.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, time.Now().Add(c.opts.WriteWait))
				return nil
			}
			if err := c.conn.WriteJSON(msg, time.Now().Add(c.opts.WriteWait)); err != nil {
				return fmt.Errorf("ws write (client %s): %w", c.ID, err)
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, time.Now().Add(c.opts.WriteWait)); err != nil {
				if errors.Is(err, websocket.ErrCloseSent) {
					return nil
				}
				return fmt.Errorf("ws ping (client %s): %w", c.ID, err)
			}
		}
	}
}
