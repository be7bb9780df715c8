package tools

import (
	"context"
	"encoding/json"
)

// SchemaInspectInput takes no parameters; the tool always returns the full
// static schema description.
type SchemaInspectInput struct{}

const schemaDescription = `The knowledge graph and its relational mirror share this schema:

Node/table kinds: Source (kind: Meeting|Document|Chat, confidentiality_level,
document_status, effective_date), Chunk (sequence_number, speakers, kind,
text, importance_score), Entity (normalized_name, canonical_name, type:
Person|Organization|Country|Topic|Project), Decision (description, rationale,
status), Action (description, owner_entity_id, priority, status).

Edges: (Chunk)-[:PART_OF]->(Source), (Chunk)-[:NEXT]->(Chunk),
(Chunk)-[:MENTIONS]->(Entity), (Chunk)-[:RESULTED_IN]->(Decision|Action),
(Entity)-[:PARTICIPATES_IN]->(Action).

Canonical query patterns:
  Entity search: (c:Chunk)-[:MENTIONS]->(e:Entity{normalized_name:$name}) RETURN c
  Meeting by date: (s:Source{kind:'Meeting'})<-[:PART_OF]-(c:Chunk) WHERE s.effective_date = $date RETURN c
  Chat search: (w:Source{kind:'Chat'})<-[:PART_OF]-(c:Chunk) WHERE c.text CONTAINS $term RETURN c`

// SchemaInspectTool returns a static description of the graph/relational
// schema and the canonical query patterns a sub-agent should use, per
// spec.md §4.11.
type SchemaInspectTool struct {
	BaseTool
}

// NewSchemaInspectTool builds the schema_inspect tool.
func NewSchemaInspectTool() *SchemaInspectTool {
	return &SchemaInspectTool{BaseTool{
		name:        "schema_inspect",
		description: "Describe the available graph/relational schema and canonical query patterns.",
		schema:      generateSchema[SchemaInspectInput](),
	}}
}

// Execute always succeeds with the static schema description.
func (t *SchemaInspectTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	return &Result{Success: true, Output: schemaDescription}, nil
}
