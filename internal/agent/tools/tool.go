// Package tools implements the three QuerySubAgent tools: schema_inspect,
// execute_graph_query, and search_content (spec.md §4.11), grounded on the
// teacher's BaseTool/ToolResult shape.
package tools

import (
	"context"
	"encoding/json"
)

// Result is the outcome of one tool invocation, mirroring the teacher's
// types.ToolResult shape.
type Result struct {
	Success bool           `json:"success"`
	Output  string         `json:"output,omitempty"`
	Error   string         `json:"error,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Tool is one callable tool a sub-agent can invoke.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, args json.RawMessage) (*Result, error)
}

// BaseTool carries the fields common to every tool: name, description, and
// its JSON Schema input shape (generated via google/jsonschema-go).
type BaseTool struct {
	name        string
	description string
	schema      map[string]any
}

func (t BaseTool) Name() string            { return t.name }
func (t BaseTool) Description() string     { return t.description }
func (t BaseTool) Schema() map[string]any { return t.schema }
