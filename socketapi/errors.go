/* socketapi/errors.go */

package socketapi

import "fmt"

// ErrorKind classifies an Error. The kind is not sent on the wire (error
// frames carry only Message), and the ingress does not map kinds to HTTP
// statuses.
type ErrorKind string

const (
	KindUnknownEndpoint   ErrorKind = "UNKNOWN_ENDPOINT"
	KindInvalidParameters ErrorKind = "INVALID_PARAMETERS"
	KindUnauthorized      ErrorKind = "UNAUTHORIZED"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindInternal          ErrorKind = "INTERNAL_ERROR"
)

// Error is a typed handler/framework error. Handlers may return one
// directly to control the wire message precisely; any other error is
// wrapped as KindInternal with a generic message before it reaches a client.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func ValidationError(message string) *Error {
	return &Error{Kind: KindInvalidParameters, Message: message}
}

func NotFoundError(message string) *Error {
	return &Error{Kind: KindUnknownEndpoint, Message: message}
}

func UnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func ForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func InternalError(message string) *Error {
	return &Error{Kind: KindInternal, Message: message}
}

// asError normalizes an arbitrary error into an *Error, wrapping unknown
// errors as a generic internal fault. The original error is never sent to
// the client; callers are expected to log it before discarding it.
func asError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return InternalError("internal error")
}

// Wire-string templates, exact per the external protocol contract.

func unknownActionMessage(name string) string {
	return fmt.Sprintf("Action '%s' not found.", name)
}

func unknownChannelMessage(name string) string {
	return fmt.Sprintf("Channel '%s' not found.", name)
}

// invalidParametersMessage intentionally says "action" even for a channel's
// subscribe-time validation failure — this mirrors the pre-distillation
// implementation's shared validator, which templates on the handler name
// without regard to whether the endpoint is an action or a channel.
func invalidParametersMessage(name string) string {
	return fmt.Sprintf("Invalid parameters for action '%s'", name)
}
