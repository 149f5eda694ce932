// Package jsonx converts Go values and types into dynamic JSON documents.
package jsonx

import (
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
)

// ToDynamicJSON converts any Go value to a dynamic JSON object represented as a map[string]any.
// It round-trips the value through its JSON encoding, so it fails for values that do not
// encode to a JSON object.
func ToDynamicJSON(val any) (map[string]any, error) {
	result := make(map[string]any)
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}

var schemaReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
	Anonymous:                 true,
}

// Schema reflects the JSON schema of v's type and returns it as a dynamic JSON object.
// The $schema version marker is left out.
func Schema(v any) (map[string]any, error) {
	s := schemaReflector.Reflect(v)
	s.Version = ""
	return ToDynamicJSON(s)
}
