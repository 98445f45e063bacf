/* socketapi/ctx.go */

package socketapi

import "context"

// sessionCtxKey marks a context as bound to a particular session. The
// session loop attaches it around every frame it handles, and the
// subscription engine attaches the subscriber's session around each
// channel-handler invocation it makes for that subscriber; nothing else in
// the core sets it. Component G inspects this marker,
// rather than any process-global, to decide whether a channel call can
// reach the broadcast engine directly or must go through the loopback
// ingress (§4.G, §9).
type sessionCtxKey struct{}

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

func sessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return s, ok
}
