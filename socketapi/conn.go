/* socketapi/conn.go */

package socketapi

import (
	"net"
	"time"
)

// Conn is the transport the session loop reads and writes frames through.
// The WebSocket transport implementation is out of scope per §1; the core
// depends only on this interface, shaped to match gorilla/websocket's
// *websocket.Conn method set directly so session.go's upgrader needs no
// wrapping at all. See session.go's serveWS for the default implementation.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	RemoteAddr() net.Addr
	Close() error
}
