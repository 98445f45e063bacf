/* socketapi/types.go */

package socketapi

import (
	"context"
	"reflect"
)

// Kind distinguishes the two wire-addressable endpoint namespaces.
type Kind string

const (
	KindAction  Kind = "action"
	KindChannel Kind = "channel"
)

// ParamKind classifies one field of a handler's input struct.
type ParamKind int

const (
	ParamValue ParamKind = iota
	ParamDependency
	ParamSubscribe
)

// paramDescriptor is one compiled parameter of an endpoint or dependency.
// It is immutable once compiled by the schema compiler (schema.go).
type paramDescriptor struct {
	name       string
	fieldIndex int
	kind       ParamKind
	goType     reflect.Type
	hasDefault bool
	defaultVal reflect.Value
	validate   string // go-playground/validator tag, if any
	dependency *endpointDescriptor
}

// invokeFunc is the uniform shim the core uses to call any handler —
// action, channel, or dependency — once its argument struct has been
// built and validated. It receives the fully assembled input value.
type invokeFunc func(ctx context.Context, in reflect.Value) (any, error)

// endpointDescriptor is the compiled, immutable-after-registration shape
// shared by actions, channels, and dependencies (§3: "structurally
// identical"). Dependencies are never exposed through the action/channel
// registry tables; they live only inside a parent parameter's metadata.
type endpointDescriptor struct {
	name            string
	kind            Kind
	inType          reflect.Type
	outType         reflect.Type
	params          []paramDescriptor
	defaultResponse bool // channels only
	invoke          invokeFunc
}

// subscriptionRecord is per-(channel, session) state: the required-on-subscribe
// arguments captured at subscribe time, and a monotonic sequence number
// assigned at creation. Broadcast iteration follows the per-channel slice's
// insertion order and does not read created.
type subscriptionRecord struct {
	session   *Session
	boundArgs map[string]any
	created   uint64
}
