// Package api hides unreliable, asynchronous remote clients behind
// request/reply calls, fire-and-forget sends and an explicit disconnect
// notification per connection.
package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/scriptcoffee/challenge/internal/messages"
)

// writeTimeout bounds every outbound frame so a stalled peer cannot block
// game logic.
const writeTimeout = 5 * time.Second

// CloseInfo carries the close code and reason observed when a connection
// died. It is delivered exactly once per CloseNotify subscriber.
type CloseInfo struct {
	Code   websocket.StatusCode
	Reason string
}

// Transport abstracts the underlying bidirectional connection so that game
// and session logic can be exercised against scripted peers in tests.
type Transport interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code websocket.StatusCode, reason string) error
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t wsTransport) Read(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	return data, err
}

func (t wsTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t wsTransport) Close(code websocket.StatusCode, reason string) error {
	return t.conn.Close(code, reason)
}

// Client owns the single read loop of one connection. All Asks against a
// connection consume messages from this loop, so a physical connection can
// be registered with several ClientApi instances (tournament roster plus a
// pairing's session) without competing readers.
type Client struct {
	transport Transport

	inbox chan []byte
	done  chan struct{}

	mu        sync.Mutex
	closeInfo CloseInfo
	subs      []chan CloseInfo
	closed    bool
}

// NewClient wraps a websocket connection and starts its read loop.
func NewClient(conn *websocket.Conn) *Client {
	return NewClientTransport(wsTransport{conn: conn})
}

// NewClientTransport is like NewClient but for an arbitrary Transport.
func NewClientTransport(t Transport) *Client {
	c := &Client{
		transport: t,
		inbox:     make(chan []byte, 1),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	for {
		data, err := c.transport.Read(context.Background())
		if err != nil {
			c.fireClosed(closeInfoFromError(err))
			return
		}
		// Keep only the most recent unconsumed message; a reply sent when
		// nobody is asking is dropped, matching the next-message contract
		// of Ask.
		select {
		case c.inbox <- data:
		default:
			select {
			case <-c.inbox:
			default:
			}
			select {
			case c.inbox <- data:
			default:
			}
		}
	}
}

func closeInfoFromError(err error) CloseInfo {
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		return CloseInfo{Code: ce.Code, Reason: ce.Reason}
	}
	return CloseInfo{Code: messages.CodeAbnormal, Reason: err.Error()}
}

func (c *Client) fireClosed(info CloseInfo) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeInfo = info
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	close(c.done)
	for _, sub := range subs {
		sub <- info
	}
}

// CloseNotify returns a channel that delivers the connection's CloseInfo
// exactly once. Subscribing to an already-dead connection delivers
// immediately.
func (c *Client) CloseNotify() <-chan CloseInfo {
	sub := make(chan CloseInfo, 1)
	c.mu.Lock()
	if c.closed {
		info := c.closeInfo
		c.mu.Unlock()
		sub <- info
		return sub
	}
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Gone reports whether the connection has died.
func (c *Client) Gone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Send marshals and writes a single message, fire-and-forget.
func (c *Client) Send(t messages.MessageType, data interface{}) error {
	raw, err := messages.Marshal(t, data)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.transport.Write(ctx, raw)
}

// Close terminates the connection with the given code and reason. The read
// loop observes the closure and notifies subscribers.
func (c *Client) Close(code websocket.StatusCode, reason string) {
	_ = c.transport.Close(code, reason)
	// Make sure watchers fire even if the read loop is slow to notice.
	c.fireClosed(CloseInfo{Code: code, Reason: reason})
}

// drain discards any message that arrived before a request was sent, so the
// subsequent wait observes only the reply.
func (c *Client) drain() {
	for {
		select {
		case <-c.inbox:
		default:
			return
		}
	}
}
