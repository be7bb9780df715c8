package tools

import (
	"context"
	"encoding/json"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// SearchContentInput is the tool's input shape.
type SearchContentInput struct {
	Kind  string `json:"kind" jsonschema:"Source kind to search: Meeting, Document, or Chat."`
	Term  string `json:"term" jsonschema:"A free-text term to search for within chunk text."`
	Limit int    `json:"limit" jsonschema:"Maximum number of chunks to return, default 20."`
}

var allowedSearchTables = map[string]bool{"chunks": true, "sources": true}

// SearchContentTool falls back to the relational store's chunk text for
// keyword search when the graph store alone isn't enough (spec.md §4.11's
// search_content(kind, term, limit)). Its generated SQL is itself validated
// with pg_query_go before execution, as a defense-in-depth measure even
// though the SQL here is built by this tool, not the model.
type SearchContentTool struct {
	BaseTool
	relational interfaces.RelationalStore
}

// NewSearchContentTool builds the search_content tool.
func NewSearchContentTool(relational interfaces.RelationalStore) *SearchContentTool {
	return &SearchContentTool{
		BaseTool: BaseTool{
			name:        "search_content",
			description: "Search chunk text by kind and free-text term, returning matching chunks.",
			schema:      generateSchema[SearchContentInput](),
		},
		relational: relational,
	}
}

// Execute builds a parameterized SELECT, validates it as SELECT-only via
// pg_query_go, and runs it against the relational store.
func (t *SearchContentTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var input SearchContentInput
	if err := json.Unmarshal(args, &input); err != nil {
		return &Result{Success: false, Error: fmt.Sprintf("parse args: %v", err)}, nil
	}
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}

	sql := `SELECT chunks.id, chunks.text, sources.title, sources.effective_date
		FROM chunks JOIN sources ON sources.id = chunks.source_id
		WHERE sources.kind = $1 AND chunks.text ILIKE $2
		ORDER BY chunks.sequence_number LIMIT $3`

	if err := validateSelectOnly(sql, allowedSearchTables); err != nil {
		return &Result{Success: false, Error: err.Error()}, nil
	}

	rows, err := t.relational.ExecuteReadOnlySQL(ctx, sql, input.Kind, "%"+input.Term+"%", input.Limit)
	if err != nil {
		logger.GetLogger(ctx).Warnf("search_content failed: %v", err)
		return &Result{Success: false, Error: err.Error()}, nil
	}

	return &Result{Success: true, Output: formatRows(rows), Data: map[string]any{"row_count": len(rows)}}, nil
}

// validateSelectOnly parses sql with PostgreSQL's official grammar and
// rejects anything but a single SELECT over an allowed table, grounded on
// the teacher's SQLSecurityValidator.ValidateAndSecure phase structure.
func validateSelectOnly(sql string, allowedTables map[string]bool) error {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return fmt.Errorf("sql parse error: %w", err)
	}
	if len(result.Stmts) != 1 {
		return fmt.Errorf("exactly one statement is required")
	}
	selectStmt := result.Stmts[0].Stmt.GetSelectStmt()
	if selectStmt == nil {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	for _, item := range selectStmt.GetFromClause() {
		if rv := item.GetRangeVar(); rv != nil && !allowedTables[rv.Relname] {
			return fmt.Errorf("table %q is not permitted", rv.Relname)
		}
		if join := item.GetJoinExpr(); join != nil {
			for _, side := range []*pg_query.Node{join.Larg, join.Rarg} {
				if rv := side.GetRangeVar(); rv != nil && !allowedTables[rv.Relname] {
					return fmt.Errorf("table %q is not permitted", rv.Relname)
				}
			}
		}
	}
	return nil
}
