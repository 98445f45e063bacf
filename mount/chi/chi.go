/* mount/chi/chi.go */

// Package chi mounts a SocketAPI app's WebSocket and broadcast-ingress
// routes onto a chi.Router, for embedders who already host their own API
// on chi rather than standing up a dedicated server via socketapi.ListenAndServe.
//
// Grounded on cartographus's SetupChi (a Router composing sub-routes with
// r.Route/r.Get) — a SocketAPI app contributes exactly two routes rather
// than a route tree, so Mount is a direct r.Handle/r.Mount pair.
package chi

import (
	"github.com/go-chi/chi/v5"

	"github.com/brightloop/socketapi/socketapi"
)

// Mount attaches app's WebSocket handler at wsPath and its broadcast
// ingress at app's configured broadcast path, both under r.
func Mount(r chi.Router, app *socketapi.App, wsPath string) {
	r.Handle(wsPath, app.WebSocketHandler())
	r.Mount(app.BroadcastPath(), app.BroadcastHandler())
}
