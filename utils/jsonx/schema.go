package jsonx

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaString reflects v into a pretty-printed JSON schema, used by
// the CLIs to document their config surface.
func SchemaString(v any) (string, error) {
	schema := jsonschema.Reflect(v)
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
