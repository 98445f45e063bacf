/* mount/gin/gin.go */

// Package gin mounts a SocketAPI app onto a gin.Engine, for embedders
// already hosting a gin application: g.Any(path, gin.WrapH(handler)).
package gin

import (
	"github.com/gin-gonic/gin"

	"github.com/brightloop/socketapi/socketapi"
)

// Mount attaches app's WebSocket handler at wsPath and its broadcast
// ingress at app's configured broadcast path, both on r.
func Mount(r gin.IRouter, app *socketapi.App, wsPath string) {
	r.Any(wsPath, gin.WrapH(app.WebSocketHandler()))
	r.Any(app.BroadcastPath(), gin.WrapH(app.BroadcastHandler()))
}
