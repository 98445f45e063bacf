/* socketapi/ingress.go */

package socketapi

import (
	"io"
	"net"
	"net/http"

	"github.com/brightloop/socketapi/internal/logging"
)

// ingressBody is the JSON shape accepted by the broadcast ingress (§6.2)
// and produced by the out-of-context broadcast client (§4.G).
type ingressBody struct {
	Channel string         `json:"channel"`
	Data    map[string]any `json:"data"`
}

// serveIngress is component F: the HTTP route co-hosted with the
// WebSocket server that lets another process trigger the same fan-out a
// bound handler call would, guarded by a host allow-list (§4.F, §6.2).
func (a *App) serveIngress(w http.ResponseWriter, r *http.Request) {
	ctx := logging.ContextWithLogger(r.Context(), a.cfg.logger)
	ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())

	if !a.peerAllowed(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var body ingressBody
	if err := a.codec.Unmarshal(raw, &body); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	desc, ok := a.Router.reg.channels[body.Channel]
	if !ok {
		http.Error(w, "unknown channel", http.StatusNotFound)
		return
	}

	a.engine.broadcast(ctx, a, desc, body.Data)
	w.WriteHeader(http.StatusOK)
}

// peerAllowed implements §4.F step 1: the peer's address, stripped of
// port, must appear in cfg.broadcastAllowedHosts.
func (a *App) peerAllowed(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	_, ok := a.cfg.broadcastAllowedHosts[host]
	return ok
}
