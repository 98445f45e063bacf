/* socketapi/registry_test.go */

package socketapi

import (
	"context"
	"reflect"
	"testing"
)

type emptyIn struct{}

func noopRaw(name string, kind Kind) rawEndpoint {
	return rawEndpoint{
		name:   name,
		kind:   kind,
		inType: reflect.TypeOf(emptyIn{}),
		invoke: func(ctx context.Context, in reflect.Value) (any, error) { return nil, nil },
	}
}

func TestRegistryActionChannelSeparateNamespaces(t *testing.T) {
	reg := newRegistry()
	if _, err := reg.addAction(noopRaw("ping", KindAction)); err != nil {
		t.Fatalf("addAction: %v", err)
	}
	if _, err := reg.addChannel(noopRaw("ping", KindChannel)); err != nil {
		t.Fatalf("expected action and channel namespaces to be independent, got: %v", err)
	}
}

func TestRegistryDuplicateNameWithinKindFails(t *testing.T) {
	reg := newRegistry()
	if _, err := reg.addAction(noopRaw("ping", KindAction)); err != nil {
		t.Fatalf("addAction: %v", err)
	}
	if _, err := reg.addAction(noopRaw("ping", KindAction)); err == nil {
		t.Fatal("expected duplicate action registration to fail")
	}
}

func TestRegistryActionRejectsSubscribeParam(t *testing.T) {
	type in struct {
		Token string `json:"token" socketapi:"subscribe"`
	}
	reg := newRegistry()
	raw := rawEndpoint{name: "bad", kind: KindAction, inType: reflect.TypeOf(in{}),
		invoke: func(ctx context.Context, in reflect.Value) (any, error) { return nil, nil }}
	if _, err := reg.addAction(raw); err == nil {
		t.Fatal("expected required-on-subscribe parameter to be rejected on an action")
	}
}

func TestRegistryIncludeMergesAndDetectsCollisions(t *testing.T) {
	base := newRegistry()
	if _, err := base.addAction(noopRaw("a", KindAction)); err != nil {
		t.Fatalf("addAction: %v", err)
	}

	other := newRegistry()
	if _, err := other.addAction(noopRaw("b", KindAction)); err != nil {
		t.Fatalf("addAction: %v", err)
	}
	if err := base.include(other); err != nil {
		t.Fatalf("include: %v", err)
	}
	if _, ok := base.actions["b"]; !ok {
		t.Fatal("expected merged registry to contain included action")
	}

	colliding := newRegistry()
	if _, err := colliding.addAction(noopRaw("a", KindAction)); err != nil {
		t.Fatalf("addAction: %v", err)
	}
	if err := base.include(colliding); err == nil {
		t.Fatal("expected name collision across include to fail")
	}
}
