package tools

import (
	"encoding/json"
	"fmt"

	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

// generateSchema builds a JSON Schema for T, mirroring the teacher's
// utils.GenerateSchema[T]() but returning a map[string]any directly since
// interfaces.ToolSpec.InputSchema is typed that way.
func generateSchema[T any]() map[string]any {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("generate schema: %v", err))
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("unmarshal schema: %v", err))
	}
	return out
}
