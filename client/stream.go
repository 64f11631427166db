package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/simdeck/simdeck/sim"
)

// streamBuffer is how many events the stream channel holds before the read
// loop stalls on the consumer.
const streamBuffer = 64

// Stream subscribes to the session's event stream. The returned channel first
// carries the session's replayed history and then live events; it closes when
// the session ends, the server drops the connection, or ctx is cancelled.
// The cancel function closes the connection and may be called more than once.
func (c *Client) Stream(ctx context.Context, sessionID string) (<-chan *sim.Event, func(), error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.streamURL(sessionID), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error dialing event stream: %w", err)
	}

	events := make(chan *sim.Event, streamBuffer)
	done := make(chan struct{})

	go func() {
		defer close(events)
		for {
			var e sim.Event
			if err := conn.ReadJSON(&e); err != nil {
				return
			}
			select {
			case events <- &e:
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close the connection when the caller's context ends, which unblocks
	// the read loop.
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { close(done) })
	}
	return events, cancel, nil
}

// streamURL converts the client's base URL to the websocket endpoint for the
// session.
func (c *Client) streamURL(sessionID string) string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/v1/sessions/" + sessionID + "/stream"
}
