/* socketapi/broadcastclient.go */

package socketapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes the circuit breaker guarding the out-of-context
// broadcast client's loopback POSTs (component G). A wedged or overloaded
// ingress should fail fast rather than hang every channel call made from
// outside a session.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
}

func defaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MaxRequests: 3, Interval: time.Minute, Timeout: 10 * time.Second}
}

// WithBroadcastClientBreaker overrides the circuit breaker settings for
// component G's loopback HTTP client.
func WithBroadcastClientBreaker(s BreakerSettings) Option {
	return func(c *config) { c.breaker = s }
}

// broadcastClient is component G: the bridge that makes a ChannelHandle.Call
// from an arbitrary goroutine behave identically to a call made from
// within a session (§4.G, §9).
//
// Grounded on handlers.py's ChannelHandler.__call__ (the behavior being
// reproduced when the call is out-of-context) and on
// tomtom215-cartographus's sync.CircuitBreakerClient for wrapping an
// outbound HTTP call in a gobreaker circuit.
type broadcastClient struct {
	app *App
	cb  *gobreaker.CircuitBreaker[any]
	hc  *http.Client
}

func newBroadcastClient(app *App) *broadcastClient {
	return &broadcastClient{
		app: app,
		hc:  &http.Client{Timeout: 10 * time.Second},
	}
}

// breaker builds the circuit breaker on first use, once app.cfg is
// fully populated (NewApp applies options before constructing the client
// in the common path, but tests may mutate cfg directly).
func (c *broadcastClient) breaker() *gobreaker.CircuitBreaker[any] {
	if c.cb == nil {
		s := c.app.cfg.breaker
		c.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        "socketapi-broadcast-ingress",
			MaxRequests: s.MaxRequests,
			Interval:    s.Interval,
			Timeout:     s.Timeout,
		})
	}
	return c.cb
}

// call is invoked by ChannelHandle.Call. If ctx carries a bound-session
// marker, the call reaches the subscription engine directly — no HTTP
// round trip, this is the "called from a handler" path. Otherwise it
// serializes {channel, data} and POSTs it to the app's own ingress,
// through the circuit breaker (§4.G).
func (c *broadcastClient) call(ctx context.Context, desc *endpointDescriptor, in any) (any, error) {
	callArgs, err := structToMap(c.app.codec, in)
	if err != nil {
		return nil, err
	}

	if _, bound := sessionFromContext(ctx); bound {
		c.app.engine.broadcast(ctx, c.app, desc, callArgs)
		return nil, nil
	}

	body, err := c.app.codec.Marshal(ingressBody{Channel: desc.name, Data: callArgs})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("http://%s:%d%s", c.app.cfg.host, c.app.cfg.port, c.app.cfg.broadcastPath)
	_, err = c.breaker().Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("socketapi: broadcast ingress returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	return nil, err
}

// structToMap round-trips a typed value through the codec to obtain a
// plain map[string]any, the shape the resolver and the ingress both
// operate on.
func structToMap(codec Codec, v any) (map[string]any, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := codec.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
