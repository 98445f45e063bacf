/* socketapi/registry.go */

package socketapi

import (
	"fmt"
	"reflect"
)

// rawEndpoint is the not-yet-compiled shape produced by the generic
// registration helpers in generics.go, before the schema compiler has
// walked its input type.
type rawEndpoint struct {
	name            string
	kind            Kind
	inType          reflect.Type
	outType         reflect.Type
	defaultResponse bool
	invoke          invokeFunc
}

// registry holds the two wire-addressable name spaces (§4.C) plus the
// dependency table used only at compile time. It backs both App and
// Router — a Router is simply a registry that has not yet been merged
// into an App.
type registry struct {
	actions      map[string]*endpointDescriptor
	channels     map[string]*endpointDescriptor
	dependencies map[string]*endpointDescriptor
}

func newRegistry() *registry {
	return &registry{
		actions:      make(map[string]*endpointDescriptor),
		channels:     make(map[string]*endpointDescriptor),
		dependencies: make(map[string]*endpointDescriptor),
	}
}

func (r *registry) addDependency(raw rawEndpoint) (*endpointDescriptor, error) {
	if _, exists := r.dependencies[raw.name]; exists {
		return nil, fmt.Errorf("socketapi: dependency %q already registered", raw.name)
	}
	inType := raw.inType
	params, err := compileParams(inType, r.dependencies)
	if err != nil {
		return nil, fmt.Errorf("socketapi: dependency %q: %w", raw.name, err)
	}
	desc := &endpointDescriptor{
		name:    raw.name,
		kind:    KindAction, // dependencies are not wire-addressable; kind is unused for them
		inType:  inType,
		outType: raw.outType,
		params:  params,
		invoke:  raw.invoke,
	}
	r.dependencies[raw.name] = desc
	return desc, nil
}

func (r *registry) addAction(raw rawEndpoint) (*endpointDescriptor, error) {
	if _, exists := r.actions[raw.name]; exists {
		return nil, fmt.Errorf("socketapi: action %q already registered", raw.name)
	}
	inType := raw.inType
	params, err := compileParams(inType, r.dependencies)
	if err != nil {
		return nil, fmt.Errorf("socketapi: action %q: %w", raw.name, err)
	}
	for _, p := range params {
		if p.kind == ParamSubscribe {
			return nil, fmt.Errorf("socketapi: action %q: parameter %q is required-on-subscribe, which is only meaningful on channels", raw.name, p.name)
		}
	}
	desc := &endpointDescriptor{
		name:    raw.name,
		kind:    KindAction,
		inType:  inType,
		outType: raw.outType,
		params:  params,
		invoke:  raw.invoke,
	}
	r.actions[raw.name] = desc
	return desc, nil
}

func (r *registry) addChannel(raw rawEndpoint) (*endpointDescriptor, error) {
	if _, exists := r.channels[raw.name]; exists {
		return nil, fmt.Errorf("socketapi: channel %q already registered", raw.name)
	}
	inType := raw.inType
	params, err := compileParams(inType, r.dependencies)
	if err != nil {
		return nil, fmt.Errorf("socketapi: channel %q: %w", raw.name, err)
	}
	desc := &endpointDescriptor{
		name:            raw.name,
		kind:            KindChannel,
		inType:          inType,
		outType:         raw.outType,
		params:          params,
		defaultResponse: raw.defaultResponse,
		invoke:          raw.invoke,
	}
	r.channels[raw.name] = desc
	return desc, nil
}

// include merges other's tables into r by table union; a name collision
// within a kind is fatal (§4.C, §6.4). Dependencies merge the same way so a
// router's privately-registered dependencies become usable by name once
// included, but remain unaddressable from the wire regardless.
func (r *registry) include(other *registry) error {
	for name, d := range other.dependencies {
		if _, exists := r.dependencies[name]; exists {
			return fmt.Errorf("socketapi: dependency %q already registered", name)
		}
		r.dependencies[name] = d
	}
	for name, d := range other.actions {
		if _, exists := r.actions[name]; exists {
			return fmt.Errorf("socketapi: action %q already registered", name)
		}
		r.actions[name] = d
	}
	for name, d := range other.channels {
		if _, exists := r.channels[name]; exists {
			return fmt.Errorf("socketapi: channel %q already registered", name)
		}
		r.channels[name] = d
	}
	return nil
}
