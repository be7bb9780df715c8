package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// ExecuteGraphQueryInput is the tool's input shape.
type ExecuteGraphQueryInput struct {
	Query string `json:"query" jsonschema:"A Cypher-like read query against the graph schema from schema_inspect."`
}

var writeKeywords = []string{"create", "merge", "delete", "set ", "remove", "detach"}

// ExecuteGraphQueryTool runs a Cypher query against the GraphStore,
// rejecting anything that looks like a write (spec.md §4.11 restricts
// QuerySubAgent to read-only retrieval).
type ExecuteGraphQueryTool struct {
	BaseTool
	graph interfaces.GraphStore
}

// NewExecuteGraphQueryTool builds the execute_graph_query tool.
func NewExecuteGraphQueryTool(graph interfaces.GraphStore) *ExecuteGraphQueryTool {
	return &ExecuteGraphQueryTool{
		BaseTool: BaseTool{
			name:        "execute_graph_query",
			description: "Execute a read-only Cypher query against the knowledge graph.",
			schema:      generateSchema[ExecuteGraphQueryInput](),
		},
		graph: graph,
	}
}

// Execute runs the query and formats rows as a bounded natural-language-ish
// table; raw rows are never handed back verbatim beyond this tool's own
// return value, per spec.md §4.11's "raw rows are not returned" contract at
// the supervisor boundary (the sub-agent itself does see rows, to
// summarize them).
func (t *ExecuteGraphQueryTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var input ExecuteGraphQueryInput
	if err := json.Unmarshal(args, &input); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("parse args: %v", err)}, nil
	}
	if input.Query == "" {
		return &Result{Success: false, Error: "missing query parameter"}, nil
	}

	lower := strings.ToLower(input.Query)
	for _, kw := range writeKeywords {
		if strings.Contains(lower, kw) {
			return &Result{Success: false, Error: "only read queries are permitted"}, nil
		}
	}

	rows, err := t.graph.ExecuteCypher(ctx, input.Query, nil)
	if err != nil {
		logger.GetLogger(ctx).Warnf("execute_graph_query failed: %v", err)
		return &Result{Success: false, Error: err.Error()}, nil
	}

	return &Result{
		Success: true,
		Output:  formatRows(rows),
		Data:    map[string]any{"row_count": len(rows)},
	}, nil
}

func formatRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "no results"
	}
	var b strings.Builder
	for i, row := range rows {
		if i >= 50 {
			fmt.Fprintf(&b, "... (%d more rows truncated)\n", len(rows)-50)
			break
		}
		fmt.Fprintf(&b, "%v\n", row)
	}
	return b.String()
}
