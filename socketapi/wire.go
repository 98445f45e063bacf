/* socketapi/wire.go */

package socketapi

// Message type values, numerically identical to gorilla/websocket's
// TextMessage/CloseMessage/PingMessage/PongMessage so a Conn implementation
// can pass them straight through without translation.
const (
	textMessage  = 1
	closeMessage = 8
	pingMessage  = 9
	pongMessage  = 10
)

// Client → Server frame type discriminators (§6.1).
const (
	wireAction      = "action"
	wireSubscribe   = "subscribe"
	wireUnsubscribe = "unsubscribe"
)

// Server → Client frame type discriminators (§6.1).
const (
	wireSubscribed   = "subscribed"
	wireUnsubscribed = "unsubscribed"
	wireData         = "data"
	wireError        = "error"
)

// inboundFrame is the shape every client→server frame is decoded into
// before classification. Data is decoded in the same pass as the rest of
// the frame (a JSON object arrives as map[string]any); payloadOf rejects any
// other shape once classification has picked a target endpoint.
type inboundFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// outboundFrame is the shape of every server→client frame. Fields are
// order-independent on the wire; omitempty keeps frames minimal, matching
// the exact shapes pinned down in §6.1's scenarios (e.g. S1's action frame
// carries no "message" field, S2's error frame carries nothing else).
type outboundFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
	Status  string `json:"status,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func actionCompletedFrame(channel string, data any) outboundFrame {
	return outboundFrame{Type: wireAction, Channel: channel, Status: "completed", Data: data}
}

func subscribedFrame(channel string) outboundFrame {
	return outboundFrame{Type: wireSubscribed, Channel: channel}
}

func unsubscribedFrame(channel string) outboundFrame {
	return outboundFrame{Type: wireUnsubscribed, Channel: channel}
}

func dataFrame(channel string, data any) outboundFrame {
	return outboundFrame{Type: wireData, Channel: channel, Data: data}
}

func errorFrame(message string) outboundFrame {
	return outboundFrame{Type: wireError, Message: message}
}
