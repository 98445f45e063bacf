/* socketapi/integration_test.go */

package socketapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brightloop/socketapi/socketapi"
	"github.com/brightloop/socketapi/socketapitest"
)

type addIn struct {
	A int `json:"a"`
	B int `json:"b"`
}

func newTestApp(t *testing.T) (*socketapi.App, *httptest.Server) {
	t.Helper()
	app := socketapi.NewApp()
	add := socketapi.Action("add", func(ctx context.Context, in addIn) (int, error) {
		return in.A + in.B, nil
	})
	if err := app.AddAction(add); err != nil {
		t.Fatalf("AddAction: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return app, srv
}

// TestS1PlainAction exercises §8 scenario S1.
func TestS1PlainAction(t *testing.T) {
	_, srv := newTestApp(t)
	c, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(map[string]any{"type": "action", "channel": "add", "data": map[string]any{"a": 5, "b": 3}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.Type != "action" || f.Channel != "add" || f.Status != "completed" {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if string(f.Data) != "8" {
		t.Fatalf("expected data 8, got %s", f.Data)
	}
}

// TestS2ActionMissingParam exercises §8 scenario S2.
func TestS2ActionMissingParam(t *testing.T) {
	_, srv := newTestApp(t)
	c, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(map[string]any{"type": "action", "channel": "add", "data": map[string]any{"a": 5}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.Type != "error" || f.Message != "Invalid parameters for action 'add'" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

type newsIn struct{}
type newsOut struct {
	Headline string `json:"headline"`
}

// TestS3SubscribeDefaultResponseOff exercises §8 scenario S3.
func TestS3SubscribeDefaultResponseOff(t *testing.T) {
	app := socketapi.NewApp()
	h := socketapi.Channel("news", false, func(ctx context.Context, in newsIn) (newsOut, error) {
		return newsOut{Headline: "hi"}, nil
	})
	if err := app.AddChannel(h); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	c, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(map[string]any{"type": "subscribe", "channel": "news"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.Type != "subscribed" || f.Channel != "news" {
		t.Fatalf("unexpected frame: %+v", f)
	}

	if err := c.Send(map[string]any{"type": "unsubscribe", "channel": "news"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f, err = c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.Type != "unsubscribed" || f.Channel != "news" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

// TestS4SubscribeDefaultResponseOn exercises §8 scenario S4.
func TestS4SubscribeDefaultResponseOn(t *testing.T) {
	app := socketapi.NewApp()
	h := socketapi.Channel("news", true, func(ctx context.Context, in newsIn) (newsOut, error) {
		return newsOut{Headline: "hi"}, nil
	})
	if err := app.AddChannel(h); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	c, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(map[string]any{"type": "subscribe", "channel": "news"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f1, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive subscribed: %v", err)
	}
	if f1.Type != "subscribed" {
		t.Fatalf("expected subscribed first, got %+v", f1)
	}
	f2, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive data: %v", err)
	}
	if f2.Type != "data" || f2.Channel != "news" {
		t.Fatalf("expected self-primed data frame, got %+v", f2)
	}
}

type sendIn struct {
	Text string `json:"text"`
}

type chatMsgIn struct {
	Message string `json:"message"`
}

type chatMsgOut struct {
	Message string `json:"message"`
}

// TestS5BroadcastViaAction exercises §8 scenario S5.
func TestS5BroadcastViaAction(t *testing.T) {
	app := socketapi.NewApp()
	chat := socketapi.Channel("chat", false, func(ctx context.Context, in chatMsgIn) (chatMsgOut, error) {
		return chatMsgOut{Message: in.Message}, nil
	})
	if err := app.AddChannel(chat); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	send := socketapi.Action("send", func(ctx context.Context, in sendIn) (socketapi.Nothing, error) {
		_, err := chat.Call(ctx, chatMsgIn{Message: in.Text})
		return socketapi.Nothing{}, err
	})
	if err := app.AddAction(send); err != nil {
		t.Fatalf("AddAction: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	s1, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial s1: %v", err)
	}
	defer s1.Close()
	s2, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial s2: %v", err)
	}
	defer s2.Close()

	for _, c := range []*socketapitest.Client{s1, s2} {
		if err := c.Send(map[string]any{"type": "subscribe", "channel": "chat"}); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
		if _, err := c.Receive(2 * time.Second); err != nil {
			t.Fatalf("receive subscribed: %v", err)
		}
	}

	caller, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial caller: %v", err)
	}
	defer caller.Close()

	if err := caller.Send(map[string]any{"type": "action", "channel": "send", "data": map[string]any{"text": "hi"}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f, err := caller.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.Type != "action" || f.Status != "completed" || len(f.Data) != 0 {
		t.Fatalf("expected bare completed frame, got %+v", f)
	}

	for _, c := range []*socketapitest.Client{s1, s2} {
		df, err := c.Receive(2 * time.Second)
		if err != nil {
			t.Fatalf("receive data: %v", err)
		}
		if df.Type != "data" || df.Channel != "chat" {
			t.Fatalf("expected chat data frame, got %+v", df)
		}
	}
}

type privIn struct {
	Token string `json:"token" socketapi:"subscribe" validate:"required"`
}

type privOut struct {
	Secret string `json:"secret"`
}

// TestS6RequiredOnSubscribeViolation exercises §8 scenario S6.
func TestS6RequiredOnSubscribeViolation(t *testing.T) {
	app := socketapi.NewApp()
	h := socketapi.Channel("priv", false, func(ctx context.Context, in privIn) (privOut, error) {
		return privOut{Secret: "classified"}, nil
	})
	if err := app.AddChannel(h); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	c, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(map[string]any{"type": "subscribe", "channel": "priv"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.Type != "error" || f.Message != "Invalid parameters for action 'priv'" {
		t.Fatalf("unexpected frame: %+v", f)
	}

	// Present but invalid (empty string against validate:"required") must
	// also be rejected, not silently bound.
	if err := c.Send(map[string]any{"type": "subscribe", "channel": "priv", "data": map[string]any{"token": ""}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f1b, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f1b.Type != "error" || f1b.Message != "Invalid parameters for action 'priv'" {
		t.Fatalf("expected an invalid-but-present token to be rejected, got %+v", f1b)
	}

	if err := c.Send(map[string]any{"type": "subscribe", "channel": "priv", "data": map[string]any{"token": "t"}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f2, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f2.Type != "subscribed" {
		t.Fatalf("expected a subsequent well-formed subscribe to succeed, got %+v", f2)
	}
}

type authTokenIn struct {
	Token string `json:"token"`
}

type authIdentity struct {
	Username string `json:"username"`
}

type whoAmIIn struct {
	Identity authIdentity `json:"identity" socketapi:"depends=auth"`
}

// TestDependencyRaisedErrorReachesWireUnwrapped exercises §4.B/§7: a
// dependency handler that returns a *socketapi.Error on purpose (an
// authentication failure, say) must reach the client as that error's own
// message, not be collapsed into a generic "internal error".
func TestDependencyRaisedErrorReachesWireUnwrapped(t *testing.T) {
	app := socketapi.NewApp()
	auth := socketapi.Dependency("auth", func(ctx context.Context, in authTokenIn) (authIdentity, error) {
		if in.Token != "good" {
			return authIdentity{}, socketapi.UnauthorizedError("unknown token")
		}
		return authIdentity{Username: "alice"}, nil
	})
	if err := app.AddDependency(auth); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	whoami := socketapi.Action("whoami", func(ctx context.Context, in whoAmIIn) (authIdentity, error) {
		return in.Identity, nil
	})
	if err := app.AddAction(whoami); err != nil {
		t.Fatalf("AddAction: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	c, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	if err := c.Send(map[string]any{"type": "action", "channel": "whoami", "data": map[string]any{"identity": map[string]any{"token": "bad"}}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	f, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if f.Type != "error" || f.Message != "unknown token" {
		t.Fatalf("expected the dependency's own error message on the wire, got %+v", f)
	}
}

// TestS7CrossProcessBroadcast exercises the allow-listed half of §8
// scenario S7: a POST to the ingress from an allow-listed peer fans out
// exactly like an in-process call. The disallowed-peer half is covered by
// ingress_test.go's TestServeIngressRejectsDisallowedPeer.
func TestS7CrossProcessBroadcast(t *testing.T) {
	app := socketapi.NewApp()
	chat := socketapi.Channel("chat", false, func(ctx context.Context, in chatMsgIn) (chatMsgOut, error) {
		return chatMsgOut{Message: in.Message}, nil
	})
	if err := app.AddChannel(chat); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	c, err := socketapitest.Dial(srv, "/")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	if err := c.Send(map[string]any{"type": "subscribe", "channel": "chat"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := c.Receive(2 * time.Second); err != nil {
		t.Fatalf("receive subscribed: %v", err)
	}

	resp, err := http.Post(srv.URL+"/broadcast", "application/json", strings.NewReader(`{"channel":"chat","data":{"message":"x"}}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from allow-listed peer, got %d", resp.StatusCode)
	}

	df, err := c.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive data: %v", err)
	}
	if df.Type != "data" || df.Channel != "chat" {
		t.Fatalf("expected chat data frame, got %+v", df)
	}
}
