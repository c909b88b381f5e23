package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/coder/websocket"

	"github.com/scriptcoffee/challenge/internal/messages"
)

// ErrClientGone is returned by Ask when the connection died before a reply
// arrived. It is not recoverable at the point of failure; sessions treat it
// as a forfeit.
var ErrClientGone = errors.New("client connection gone")

// ErrInvalidAnswer matches (via errors.Is) the error returned when a client
// replied with the wrong message type or an unparseable frame. The caller
// decides whether to re-prompt.
var ErrInvalidAnswer = errors.New("invalid client answer")

type invalidAnswerError struct {
	raw string
}

func (e *invalidAnswerError) Error() string {
	return "Invalid client answer: " + e.raw
}

func (e *invalidAnswerError) Is(target error) bool {
	return target == ErrInvalidAnswer
}

// Ask sends a typed request on the connection and consumes exactly the next
// inbound message. A reply of any other type (or an unparseable one) fails
// with ErrInvalidAnswer and a BAD_MESSAGE notice to the offending client;
// there is no retry here. Concurrent Asks on the same connection are the
// caller's bug; Asks on different connections are independent.
func Ask(ctx context.Context, c *Client, request messages.MessageType, payload interface{}, reply messages.MessageType) (json.RawMessage, error) {
	if c.Gone() {
		return nil, fmt.Errorf("%w before %s request", ErrClientGone, request)
	}

	c.drain()
	if err := c.Send(request, payload); err != nil {
		return nil, fmt.Errorf("%w: failed to send %s: %v", ErrClientGone, request, err)
	}

	select {
	case raw := <-c.inbox:
		msg, err := messages.Parse(raw)
		if err != nil || msg.Type != reply {
			_ = c.Send(messages.BadMessage, string(raw))
			return nil, &invalidAnswerError{raw: string(raw)}
		}
		return msg.Data, nil
	case <-c.done:
		info := c.closeInfo
		return nil, fmt.Errorf("%w while awaiting %s: %d %s", ErrClientGone, reply, info.Code, info.Reason)
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

// ClientApi is the per-session registry of live connections. It provides
// broadcast, single-recipient sends and uniform shutdown; request/reply
// goes through Ask.
type ClientApi struct {
	mu      sync.Mutex
	clients []*Client
}

// New returns an empty registry.
func New() *ClientApi {
	return &ClientApi{}
}

// AddClient registers a connection and returns its close notification
// channel. The channel fires exactly once, with the close code and reason,
// and is the sole disconnect signal the session layers rely on.
func (a *ClientApi) AddClient(c *Client) <-chan CloseInfo {
	a.mu.Lock()
	a.clients = append(a.clients, c)
	a.mu.Unlock()
	return c.CloseNotify()
}

// RemoveClient forcibly closes one connection without touching the rest.
func (a *ClientApi) RemoveClient(c *Client, code websocket.StatusCode, reason string) {
	a.mu.Lock()
	for i, cl := range a.clients {
		if cl == c {
			a.clients = append(a.clients[:i], a.clients[i+1:]...)
			break
		}
	}
	a.mu.Unlock()
	c.Close(code, reason)
}

// Ask is the registry-scoped form of the package-level Ask.
func (a *ClientApi) Ask(ctx context.Context, c *Client, request messages.MessageType, payload interface{}, reply messages.MessageType) (json.RawMessage, error) {
	return Ask(ctx, c, request, payload, reply)
}

// Tell sends a single fire-and-forget message to one client.
func (a *ClientApi) Tell(c *Client, t messages.MessageType, data interface{}) {
	if err := c.Send(t, data); err != nil && !c.Gone() {
		log.Printf("failed to send %s: %v", t, err)
	}
}

// Broadcast sends a fire-and-forget message to every registered client.
func (a *ClientApi) Broadcast(t messages.MessageType, data interface{}) {
	a.mu.Lock()
	clients := make([]*Client, len(a.clients))
	copy(clients, a.clients)
	a.mu.Unlock()

	for _, c := range clients {
		if c.Gone() {
			continue
		}
		if err := c.Send(t, data); err != nil {
			log.Printf("failed to broadcast %s: %v", t, err)
		}
	}
}

// CloseAll gracefully closes every registered connection with a uniform
// code and reason, and empties the registry.
func (a *ClientApi) CloseAll(code websocket.StatusCode, reason string) {
	a.mu.Lock()
	clients := a.clients
	a.clients = nil
	a.mu.Unlock()

	for _, c := range clients {
		c.Close(code, reason)
	}
}
