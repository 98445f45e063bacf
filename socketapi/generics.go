/* socketapi/generics.go */

package socketapi

import (
	"context"
	"reflect"
)

// registrant is implemented by every typed handle returned from Action,
// Channel, and Dependency. It lets App/Router deal in plain
// *endpointDescriptor values without the generic type parameters leaking
// past registration — Go does not allow generic methods, so the handles
// carry their own compiled raw() and stash whatever the registry gives back
// via bind().
type registrant interface {
	raw() rawEndpoint
	bind(desc *endpointDescriptor, client *broadcastClient)
}

// ActionHandle is the typed handle returned by Action. It has no
// programmatic call surface of its own — actions are request/response and
// are invoked only by a session in response to a client frame.
type ActionHandle[In, Out any] struct {
	r rawEndpoint
}

func (h *ActionHandle[In, Out]) raw() rawEndpoint                               { return h.r }
func (h *ActionHandle[In, Out]) bind(*endpointDescriptor, *broadcastClient) {}

// Action creates an ActionHandle from a typed handler function. fn may
// return (*Error) to control the wire error precisely, or a plain error,
// which is reported to the client as a generic internal fault.
func Action[In, Out any](name string, fn func(context.Context, In) (Out, error)) *ActionHandle[In, Out] {
	return &ActionHandle[In, Out]{r: rawEndpoint{
		name:    name,
		kind:    KindAction,
		inType:  reflect.TypeOf(*new(In)),
		outType: reflect.TypeOf(*new(Out)),
		invoke:  wrapTyped[In, Out](fn),
	}}
}

// ChannelHandle is the typed handle returned by Channel. Unlike an action,
// it is directly callable (§4.G): code anywhere in the process may call
// Call to fan out exactly as if the channel handler had been invoked by
// the engine. Where the call originates — inside a bound session or not —
// is detected transparently from ctx.
type ChannelHandle[In, Out any] struct {
	r      rawEndpoint
	desc   *endpointDescriptor
	client *broadcastClient
}

func (h *ChannelHandle[In, Out]) raw() rawEndpoint { return h.r }

func (h *ChannelHandle[In, Out]) bind(desc *endpointDescriptor, client *broadcastClient) {
	h.desc = desc
	h.client = client
}

// Channel creates a ChannelHandle from a typed handler function and a
// defaultResponse flag (§4.D: whether a successful subscribe synthesizes an
// immediate self-primed invocation).
func Channel[In, Out any](name string, defaultResponse bool, fn func(context.Context, In) (Out, error)) *ChannelHandle[In, Out] {
	return &ChannelHandle[In, Out]{r: rawEndpoint{
		name:            name,
		kind:            KindChannel,
		inType:          reflect.TypeOf(*new(In)),
		outType:         reflect.TypeOf(*new(Out)),
		defaultResponse: defaultResponse,
		invoke:          wrapTyped[In, Out](fn),
	}}
}

// Call invokes the channel's handler and fans out its result to every
// current subscriber, exactly like a broadcast triggered from inside a
// session (§4.G). It must be called only after the handle has been
// registered via App.AddChannel or Router.AddChannel (directly, or via
// IncludeRouter); calling it earlier returns ErrNotRegistered.
func (h *ChannelHandle[In, Out]) Call(ctx context.Context, in In) (Out, error) {
	var zero Out
	if h.desc == nil || h.client == nil {
		return zero, ErrNotRegistered
	}
	out, err := h.client.call(ctx, h.desc, in)
	if err != nil {
		return zero, err
	}
	if out == nil {
		return zero, nil
	}
	typed, ok := out.(Out)
	if !ok {
		return zero, nil
	}
	return typed, nil
}

// DependencyHandle is the typed handle returned by Dependency. It has no
// programmatic call surface: a dependency is only ever invoked by the
// resolver as part of resolving some other endpoint's arguments (§4.B),
// never addressed directly from the wire (§3).
type DependencyHandle[In, Out any] struct {
	r rawEndpoint
}

func (h *DependencyHandle[In, Out]) raw() rawEndpoint                           { return h.r }
func (h *DependencyHandle[In, Out]) bind(*endpointDescriptor, *broadcastClient) {}

// Dependency creates a DependencyHandle from a typed handler function.
// Other endpoints reference it by name via the `socketapi:"depends=<name>"`
// struct tag on one of their own input fields (§12).
func Dependency[In, Out any](name string, fn func(context.Context, In) (Out, error)) *DependencyHandle[In, Out] {
	return &DependencyHandle[In, Out]{r: rawEndpoint{
		name:    name,
		inType:  reflect.TypeOf(*new(In)),
		outType: reflect.TypeOf(*new(Out)),
		invoke:  wrapTyped[In, Out](fn),
	}}
}

// Nothing is the designated "this handler has no reply payload" return
// type (§3: "handler: opaque callable producing a value or nothing";
// §4.E: "data ... omitted if handler returned nothing"). An action handler
// returning (Nothing, nil) produces an action frame with no data field at
// all, rather than an empty object; a channel handler returning
// (Nothing, nil) produces no data frame for that subscriber.
type Nothing struct{}

// wrapTyped adapts a typed handler into the uniform invokeFunc shim the
// core uses once a descriptor's input struct has been built by the
// resolver (§9: "a uniform invocation shim ... the only place the core
// sees handlers").
func wrapTyped[In, Out any](fn func(context.Context, In) (Out, error)) invokeFunc {
	return func(ctx context.Context, in reflect.Value) (any, error) {
		typedIn, ok := in.Interface().(In)
		if !ok {
			return nil, InternalError("argument type mismatch")
		}
		out, err := fn(ctx, typedIn)
		if err != nil {
			return nil, err
		}
		if _, isNothing := any(out).(Nothing); isNothing {
			return nil, nil
		}
		return out, nil
	}
}
