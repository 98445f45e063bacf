/* socketapi/ingress_test.go */

package socketapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestServeIngressRejectsDisallowedPeer(t *testing.T) {
	app := NewApp()
	req := httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader(`{"channel":"chat","data":{}}`))
	req.RemoteAddr = "203.0.113.5:12345"
	w := httptest.NewRecorder()

	app.serveIngress(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestServeIngressUnknownChannel(t *testing.T) {
	app := NewApp()
	req := httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader(`{"channel":"nope","data":{}}`))
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()

	app.serveIngress(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestServeIngressMalformedBody(t *testing.T) {
	app := NewApp()
	req := httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader(`not json`))
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()

	app.serveIngress(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestServeIngressBroadcastsToSubscriber(t *testing.T) {
	app := NewApp()
	h := Channel("chat", false, func(ctx context.Context, in chatIn) (chatOut, error) {
		return chatOut{Message: in.Message}, nil
	})
	if err := app.AddChannel(h); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	desc := app.Router.reg.channels["chat"]
	s := newTestSession(t, app)
	if err := app.engine.subscribe(context.Background(), app, s, desc, map[string]any{}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	drain(t, s) // subscribed

	req := httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader(`{"channel":"chat","data":{"message":"x"}}`))
	req.RemoteAddr = "127.0.0.1:12345"
	w := httptest.NewRecorder()

	app.serveIngress(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	select {
	case f := <-s.outbox:
		if f.Type != wireData || f.Channel != "chat" {
			t.Fatalf("expected data frame on chat, got %+v", f)
		}
	case <-time.After(time.Second):
		t.Fatal("expected subscriber to receive a data frame")
	}
}
