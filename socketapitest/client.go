/* socketapitest/client.go */

// Package socketapitest provides a minimal WebSocket client for exercising
// a socketapi.App end to end in tests, without pulling gorilla/websocket's
// dialer into the core package itself.
package socketapitest

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Client wraps a dialed WebSocket connection to a socketapi.App under test.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to the WebSocket route at path on srv, an already started
// httptest.Server wrapping app.Handler() or any http.Handler exposing that
// route.
func Dial(srv *httptest.Server, path string) (*Client, error) {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("socketapitest: dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Send marshals v and writes it as a single text frame.
func (c *Client) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Frame is the generic shape read back; callers unmarshal Data themselves
// once they know which endpoint produced it.
type Frame struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Status  string          `json:"status,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Receive reads one frame, failing if none arrives within timeout.
func (c *Client) Receive(timeout time.Duration) (Frame, error) {
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	var f Frame
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, err
	}
	return f, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }
