/* socketapi/validate.go */

package socketapi

import (
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator checks a fully-typed, already-unmarshaled value against
// whatever leaf-level constraints its struct tags declare. The core never
// depends on a concrete validation library directly; it depends on this
// interface, per the "schema validation library is out of scope, referenced
// only through interfaces" boundary.
type Validator interface {
	Validate(v any) error
}

// validatorAdapter wraps go-playground/validator/v10 behind Validator.
type validatorAdapter struct {
	once sync.Once
	v    *validator.Validate
}

func newValidatorAdapter() *validatorAdapter {
	return &validatorAdapter{}
}

func (a *validatorAdapter) instance() *validator.Validate {
	a.once.Do(func() { a.v = validator.New() })
	return a.v
}

func (a *validatorAdapter) Validate(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	if err := a.instance().Struct(rv.Interface()); err != nil {
		if _, ok := err.(*validator.InvalidValidationError); ok {
			// No tagged fields to check; not a validation failure.
			return nil
		}
		return err
	}
	return nil
}

// validateField runs a single-field validation, used by the resolver to
// check one parameter at a time (a handler's input struct is assembled
// field-by-field, not all at once, because dependency fields require a
// recursive call in between).
func validateField(val Validator, tag string, value reflect.Value) error {
	if tag == "" {
		return nil
	}
	if a, ok := val.(*validatorAdapter); ok {
		return a.instance().Var(value.Interface(), tag)
	}
	// A custom Validator only validates whole structs, which resolveArgs
	// does once the input struct is assembled; field-tag validation is a
	// go-playground/validator-specific extension.
	return nil
}
