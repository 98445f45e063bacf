/* socketapi/resolver.go */

package socketapi

import (
	"context"
	"reflect"
)

// validationFailure marks a resolution failure that should surface to the
// client as "Invalid parameters for action '<name>'" — as opposed to a
// dependency handler fault, which surfaces like any other handler-raised
// error (§4.B: "Dependency handler raises -> treated as a handler-raised
// error").
type validationFailure struct {
	detail string
}

func (v *validationFailure) Error() string { return v.detail }

// resolveArgs is component B: given a compiled descriptor and a JSON
// object already decoded to map[string]any, it builds the descriptor's
// input struct value, resolving dependencies recursively. It is stateless
// and re-entrant; nothing here is memoized across calls (§4.B).
func resolveArgs(ctx context.Context, codec Codec, val Validator, desc *endpointDescriptor, payload map[string]any) (reflect.Value, error) {
	in := reflect.New(desc.inType).Elem()

	for _, p := range desc.params {
		switch p.kind {

		case ParamValue, ParamSubscribe:
			raw, present := payload[p.name]
			if !present {
				if p.hasDefault {
					in.Field(p.fieldIndex).Set(p.defaultVal)
					continue
				}
				return reflect.Value{}, &validationFailure{detail: "missing parameter " + p.name}
			}
			raw = coerceScalar(raw, p.goType)
			fv := in.Field(p.fieldIndex)
			if err := assignAny(codec, raw, fv); err != nil {
				return reflect.Value{}, &validationFailure{detail: err.Error()}
			}
			if p.validate != "" {
				if err := validateField(val, p.validate, fv); err != nil {
					return reflect.Value{}, &validationFailure{detail: err.Error()}
				}
			}

		case ParamDependency:
			var obj map[string]any
			if raw, present := payload[p.name]; present {
				m, ok := raw.(map[string]any)
				if !ok {
					return reflect.Value{}, &validationFailure{detail: "dependency field " + p.name + " must be an object"}
				}
				obj = m
			} else {
				obj = map[string]any{}
			}

			depIn, err := resolveArgs(ctx, codec, val, p.dependency, obj)
			if err != nil {
				return reflect.Value{}, err
			}
			out, err := p.dependency.invoke(ctx, depIn)
			if err != nil {
				// A dependency's own fault is a handler fault, not a
				// validation failure; propagate it unwrapped.
				return reflect.Value{}, err
			}
			if err := assignAny(codec, out, in.Field(p.fieldIndex)); err != nil {
				return reflect.Value{}, &validationFailure{detail: err.Error()}
			}
		}
	}

	// The default adapter has already checked each field's validate tag; any
	// other Validator checks the assembled struct as a whole.
	if _, builtin := val.(*validatorAdapter); !builtin && val != nil {
		if err := val.Validate(in.Interface()); err != nil {
			return reflect.Value{}, &validationFailure{detail: err.Error()}
		}
	}

	return in, nil
}

// resolveBroadcastArgs resolves a channel's argument struct for a broadcast,
// overlaying callArgs on top of a subscriber's boundArgs (§4.D). Only
// required-on-subscribe fields come from boundArgs; ordinary value fields
// and dependencies are resolved from callArgs exactly like any other call.
func resolveBroadcastArgs(ctx context.Context, codec Codec, val Validator, desc *endpointDescriptor, boundArgs, callArgs map[string]any) (reflect.Value, error) {
	merged := make(map[string]any, len(boundArgs)+len(callArgs))
	for k, v := range boundArgs {
		merged[k] = v
	}
	for k, v := range callArgs {
		merged[k] = v
	}
	return resolveArgs(ctx, codec, val, desc, merged)
}

// assignAny sets dst from a dynamically typed value, accepting either a
// directly assignable value or falling back to a marshal/unmarshal round
// trip through codec for shapes that need coercion (nested JSON objects
// decoded as map[string]any binding onto a struct field, for instance).
func assignAny(codec Codec, v any, dst reflect.Value) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(dst.Type()) && isNumericKind(rv.Kind()) && isNumericKind(dst.Kind()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}

	data, err := codec.Marshal(v)
	if err != nil {
		return err
	}
	ptr := reflect.New(dst.Type())
	if err := codec.Unmarshal(data, ptr.Interface()); err != nil {
		return err
	}
	dst.Set(ptr.Elem())
	return nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
