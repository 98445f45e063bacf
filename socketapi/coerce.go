/* socketapi/coerce.go */

package socketapi

import (
	"reflect"
	"strconv"
)

// coerceScalar adapts a decoded JSON scalar to a declared Go field type
// where the conversion is unambiguous, mirroring the "type coercion
// consistent with a mainstream schema library" requirement (§4.A): numeric
// strings coerce to numbers, numbers and booleans coerce to strings, and
// strings accepted by strconv.ParseBool ("true", "1", ...) coerce to bool;
// JSON numbers are not coerced to bool. Anything else is returned unchanged and left for
// the eventual struct unmarshal to accept or reject.
func coerceScalar(v any, target reflect.Type) any {
	for target.Kind() == reflect.Ptr {
		target = target.Elem()
	}

	switch target.Kind() {
	case reflect.String:
		switch n := v.(type) {
		case float64:
			return strconv.FormatFloat(n, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(n)
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if s, ok := v.(string); ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}

	case reflect.Bool:
		if s, ok := v.(string); ok {
			if b, err := strconv.ParseBool(s); err == nil {
				return b
			}
		}
	}
	return v
}
