/* socketapi/session.go */

package socketapi

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brightloop/socketapi/internal/logging"
)

const (
	sessionOpen int32 = iota
	sessionClosing
	sessionClosed
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	readLimit  = 1 << 20
)

// upgrader is the default transport adapter for component E, grounded on
// handler_ws.go's wsUpgrader: a package-level gorilla/websocket.Upgrader
// with a permissive CheckOrigin (the core takes no position on same-origin
// policy; an embedder fronting it with its own auth layer is expected to
// enforce that at the HTTP layer, per §1's "authentication ... expressible
// as a user-supplied dependency but not built in").
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Session is component E's per-connection state (§3 "Session state").
// Exactly two goroutines touch session-local state: the read loop and the
// write loop started by serveWS. Everything else communicates with a
// session solely by enqueueing frames onto its outbox.
type Session struct {
	id   string
	conn Conn
	app  *App

	outbox chan outboundFrame
	state  int32

	closeOnce sync.Once
	done      chan struct{}
}

func newSession(app *App, conn Conn) *Session {
	return &Session{
		id:     uuid.NewString(),
		conn:   conn,
		app:    app,
		outbox: make(chan outboundFrame, app.cfg.outboxSize),
		done:   make(chan struct{}),
	}
}

func (s *Session) isClosing() bool {
	return atomic.LoadInt32(&s.state) != sessionOpen
}

// enqueue places frame on the outbox, honoring the backpressure policy of
// §5: if the outbox stays full past the app's configured deadline, the
// session is treated as unresponsive and closed. enqueue never blocks past
// that deadline and is safe to call from any goroutine, including
// concurrent broadcast fan-out across many subscribers.
func (s *Session) enqueue(frame outboundFrame) {
	if s.isClosing() {
		return
	}
	select {
	case s.outbox <- frame:
	case <-s.done:
	case <-time.After(s.app.cfg.outboxDeadline):
		logging.FromContext(context.Background()).Warn().Str("session", s.id).Msg("outbox deadline exceeded, closing session as unresponsive")
		s.closeNow()
	}
}

// closeNow transitions the session to CLOSED, detaches every subscription
// it holds, and stops the write loop. Safe to call more than once and from
// either loop or from enqueue.
func (s *Session) closeNow() {
	s.closeOnce.Do(func() {
		atomic.StoreInt32(&s.state, sessionClosed)
		close(s.done)
		s.app.engine.detach(s)
		s.conn.Close()
	})
}

// serveWS is the http.HandlerFunc backing App.WebSocketHandler (§4.E "On
// accept"). Grounded on handler_ws.go's upgrade-then-pair-of-goroutines
// shape, generalized from a single RPC socket to the classify-and-dispatch
// loop required by §4.E.
func (a *App) serveWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s := newSession(a, wsConn)
	// Closing the session cancels the context handed to its handlers.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() { <-s.done; cancel() }()
	ctx = logging.ContextWithLogger(ctx, a.cfg.logger)
	ctx = logging.ContextWithCorrelationID(ctx, s.id)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); s.writeLoop() }()
	go func() { defer wg.Done(); s.readLoop(ctx) }()
	wg.Wait()
}

// writeLoop is the session's single writer task (§5: "a single writer task
// draining its outbox"). It owns the connection's write side exclusively.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case frame, ok := <-s.outbox:
			if !ok {
				return
			}
			data, err := s.app.codec.Marshal(frame)
			if err != nil {
				s.app.logger.Error().Err(err).Msg("failed to marshal outbound frame")
				continue
			}
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(textMessage, data); err != nil {
				s.closeNow()
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(pingMessage, nil); err != nil {
				s.closeNow()
				return
			}
		}
	}
}

// readLoop is the session's cooperative read task (§4.E, §5). It decodes
// each text frame, classifies it by type, and dispatches — discarding
// inbound frames once the session has entered CLOSING (§4.E: "Once
// CLOSING, inbound frames are discarded").
func (s *Session) readLoop(ctx context.Context) {
	defer s.closeNow()

	s.conn.SetReadLimit(readLimit)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if s.isClosing() {
			continue
		}
		s.handleFrame(withSession(ctx, s), data)
	}
}

// handleFrame implements the classification table of §4.E and §6.1. A
// failure decoding or dispatching one frame is reported as an error frame
// and never terminates the session (§7 "Recovery policy").
func (s *Session) handleFrame(ctx context.Context, data []byte) {
	var frame inboundFrame
	if err := s.app.codec.Unmarshal(data, &frame); err != nil {
		s.enqueue(errorFrame("Malformed message."))
		return
	}

	switch frame.Type {
	case "":
		s.enqueue(errorFrame("Message type is required."))

	case wireAction:
		s.handleAction(ctx, frame)

	case wireSubscribe:
		s.handleSubscribe(ctx, frame)

	case wireUnsubscribe:
		s.handleUnsubscribe(frame)

	default:
		s.enqueue(errorFrame("Unknown message type: '" + frame.Type + "'."))
	}
}

func (s *Session) payloadOf(frame inboundFrame) (map[string]any, error) {
	if frame.Data == nil {
		return map[string]any{}, nil
	}
	m, ok := frame.Data.(map[string]any)
	if !ok {
		return nil, &validationFailure{detail: "data must be an object"}
	}
	return m, nil
}

func (s *Session) handleAction(ctx context.Context, frame inboundFrame) {
	if frame.Channel == "" {
		s.enqueue(errorFrame("Channel is required."))
		return
	}

	desc, ok := s.app.Router.reg.actions[frame.Channel]
	if !ok {
		s.enqueue(errorFrame(unknownActionMessage(frame.Channel)))
		return
	}

	payload, err := s.payloadOf(frame)
	if err != nil {
		s.enqueue(errorFrame(invalidParametersMessage(frame.Channel)))
		return
	}

	in, err := resolveArgs(ctx, s.app.codec, s.app.validator, desc, payload)
	if err != nil {
		if _, ok := err.(*validationFailure); ok {
			s.enqueue(errorFrame(invalidParametersMessage(frame.Channel)))
			return
		}
		logging.FromContext(ctx).Error().Err(err).Str("action", frame.Channel).Msg("action handler fault")
		s.enqueue(errorFrame(asError(err).Message))
		return
	}

	out, err := desc.invoke(ctx, in)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("action", frame.Channel).Msg("action handler fault")
		s.enqueue(errorFrame(asError(err).Message))
		return
	}
	s.enqueue(actionCompletedFrame(frame.Channel, out))
}

func (s *Session) handleSubscribe(ctx context.Context, frame inboundFrame) {
	if frame.Channel == "" {
		s.enqueue(errorFrame("Channel is required."))
		return
	}

	desc, ok := s.app.Router.reg.channels[frame.Channel]
	if !ok {
		s.enqueue(errorFrame(unknownChannelMessage(frame.Channel)))
		return
	}

	payload, err := s.payloadOf(frame)
	if err != nil {
		s.enqueue(errorFrame(invalidParametersMessage(frame.Channel)))
		return
	}

	if err := s.app.engine.subscribe(ctx, s.app, s, desc, payload); err != nil {
		s.enqueue(errorFrame(invalidParametersMessage(frame.Channel)))
	}
}

func (s *Session) handleUnsubscribe(frame inboundFrame) {
	if frame.Channel == "" {
		s.enqueue(errorFrame("Channel is required."))
		return
	}
	s.app.engine.unsubscribe(s, frame.Channel)
}
