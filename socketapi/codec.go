/* socketapi/codec.go */

package socketapi

import (
	gojson "github.com/goccy/go-json"
)

// Codec is the JSON encoder/decoder the core uses for wire frames, ingress
// bodies, and broadcast-client payloads. The JSON codec is out of scope per
// §1; the core depends only on this interface.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// goccyCodec is the default Codec, backed by goccy/go-json as a drop-in,
// faster replacement for encoding/json.
type goccyCodec struct{}

func (goccyCodec) Marshal(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

func (goccyCodec) Unmarshal(data []byte, v any) error {
	return gojson.Unmarshal(data, v)
}

func defaultCodec() Codec { return goccyCodec{} }
