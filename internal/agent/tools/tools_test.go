package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaInspectTool_AlwaysSucceeds(t *testing.T) {
	tool := NewSchemaInspectTool()
	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Output, "MENTIONS")
}

func TestValidateSelectOnly_RejectsWrites(t *testing.T) {
	err := validateSelectOnly("DELETE FROM chunks", allowedSearchTables)
	assert.Error(t, err)
}

func TestValidateSelectOnly_RejectsDisallowedTable(t *testing.T) {
	err := validateSelectOnly("SELECT * FROM whitelist_entries", allowedSearchTables)
	assert.Error(t, err)
}

func TestValidateSelectOnly_AllowsKnownTables(t *testing.T) {
	err := validateSelectOnly(
		"SELECT chunks.id FROM chunks JOIN sources ON sources.id = chunks.source_id WHERE chunks.text ILIKE $1",
		allowedSearchTables,
	)
	assert.NoError(t, err)
}
