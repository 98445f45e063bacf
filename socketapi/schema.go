/* socketapi/schema.go */

package socketapi

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// socketapiTag is the struct tag vocabulary read by the schema compiler,
// in addition to the ordinary "json" and "validate" tags:
//
//	`socketapi:"depends=<name>"`  — field is bound to the named dependency's result
//	`socketapi:"subscribe"`       — field is required-on-subscribe (channels only)
//	`socketapi:"default=<json>"`  — field is optional, defaulting to the given JSON literal
const socketapiTag = "socketapi"

// compileParams walks t's exported fields and produces one paramDescriptor
// per field, in declaration order (§4.A). deps is the set of dependencies
// registered so far, looked up by the "depends=" tag value.
//
// Cycles are rejected by construction rather than by a separate graph walk:
// a dependency may only name dependencies already present in deps, i.e.
// registered strictly before it. A self- or mutually-referential chain
// always has some member whose "depends=" target is not yet in deps, and
// registration fails there with a structured error, exactly as required by
// §4.A ("Cycles ... fail registration with a structured error").
func compileParams(t reflect.Type, deps map[string]*endpointDescriptor) ([]paramDescriptor, error) {
	if t == nil {
		return nil, nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("socketapi: input type %s must be a struct", t)
	}

	var params []paramDescriptor
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitempty := jsonFieldName(field)
		if name == "-" {
			continue
		}

		tag := parseSocketapiTag(field.Tag.Get(socketapiTag))

		switch {
		case tag.dependsOn != "":
			dep, ok := deps[tag.dependsOn]
			if !ok {
				return nil, fmt.Errorf("socketapi: field %q depends on unregistered dependency %q (dependencies must be registered before anything that references them)", field.Name, tag.dependsOn)
			}
			params = append(params, paramDescriptor{
				name:       name,
				fieldIndex: i,
				kind:       ParamDependency,
				goType:     field.Type,
				dependency: dep,
			})

		case tag.subscribe:
			params = append(params, paramDescriptor{
				name:       name,
				fieldIndex: i,
				kind:       ParamSubscribe,
				goType:     field.Type,
				validate:   field.Tag.Get("validate"),
			})

		default:
			p := paramDescriptor{
				name:       name,
				fieldIndex: i,
				kind:       ParamValue,
				goType:     field.Type,
				validate:   field.Tag.Get("validate"),
			}
			if tag.hasDefault {
				dv := reflect.New(field.Type).Elem()
				// Tag literals are fixed at registration time, not wire traffic;
				// encoding/json is enough to parse a compile-time constant.
				if err := json.Unmarshal([]byte(tag.defaultLiteral), dv.Addr().Interface()); err != nil {
					return nil, fmt.Errorf("socketapi: default for field %q: %w", field.Name, err)
				}
				p.hasDefault = true
				p.defaultVal = dv
			} else if omitempty {
				p.hasDefault = true
				p.defaultVal = reflect.New(field.Type).Elem()
			}
			params = append(params, p)
		}
	}
	return params, nil
}

type socketapiFieldTag struct {
	dependsOn      string
	subscribe      bool
	hasDefault     bool
	defaultLiteral string
}

func parseSocketapiTag(raw string) socketapiFieldTag {
	var t socketapiFieldTag
	if raw == "" {
		return t
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "subscribe":
			t.subscribe = true
		case strings.HasPrefix(part, "depends="):
			t.dependsOn = strings.TrimPrefix(part, "depends=")
		case strings.HasPrefix(part, "default="):
			t.hasDefault = true
			t.defaultLiteral = strings.TrimPrefix(part, "default=")
		}
	}
	return t
}

// jsonFieldName extracts the JSON key from the struct tag and whether
// omitempty is set, matching encoding/json's own tag conventions.
func jsonFieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = f.Name
	}
	omitempty := false
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}
