// Package interfaces defines the service-boundary contracts that the
// ingestion, graph, relational, and query-serving packages depend on, so
// that each can be exercised against a fake in tests without standing up
// Neo4j, Postgres, MinIO, or a live LLM endpoint.
package interfaces

import (
	"context"
	"time"

	"github.com/wk-archive/meetingmind/internal/types"
)

// GraphStore is the Neo4j-backed knowledge graph boundary (spec.md §4.5).
// Every write is idempotent: calling UpsertSource/UpsertChunks/UpsertEntities
// twice with the same inputs leaves the graph in the same state as calling
// it once. UpsertEntities' effectiveDate is the source's EffectiveDate, not
// wall-clock time: it anchors first_mentioned/last_mentioned so the MENTIONS
// invariant (first_mentioned <= source date <= last_mentioned) holds even
// when sources are ingested out of chronological order.
type GraphStore interface {
	UpsertSource(ctx context.Context, source types.Source) error
	UpsertChunks(ctx context.Context, sourceID string, chunks []types.Chunk) error
	UpsertEntities(ctx context.Context, entities []types.Entity, effectiveDate time.Time) error
	UpsertDecisions(ctx context.Context, decisions []types.Decision) error
	UpsertActions(ctx context.Context, actions []types.Action) error
	LinkMentions(ctx context.Context, mentions map[string][]string) error
	ExecuteCypher(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// RelationalStore is the Postgres/pgvector mirror boundary (spec.md §4.6).
// It carries the same logical records as GraphStore plus the embedding
// column the graph does not hold, and backs the fallback SQL surface the
// search_content tool exposes.
type RelationalStore interface {
	UpsertSource(ctx context.Context, source types.Source) error
	UpsertChunks(ctx context.Context, chunks []types.Chunk) error
	UpsertEntities(ctx context.Context, entities []types.Entity, effectiveDate time.Time) error
	UpsertDecisions(ctx context.Context, decisions []types.Decision) error
	UpsertActions(ctx context.Context, actions []types.Action) error
	SearchByVector(ctx context.Context, embedding []float32, topK int, minConfidentiality types.ConfidentialityLevel) ([]types.Chunk, error)
	ExecuteReadOnlySQL(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
	Ping(ctx context.Context) error
	Close() error
}

// ObjectStore is the MinIO/S3-compatible source bucket boundary (spec.md
// §4.8). GetObject returns only the object's raw bytes; the content hash
// (a SHA-256 of those bytes) is computed by the caller, not the store, so
// the ledger's hash policy stays in one place.
type ObjectStore interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	Ping(ctx context.Context) error
}

// ObjectInfo is the subset of object metadata SourceMonitor diffs against
// the ProcessedLedger.
type ObjectInfo struct {
	Key          string
	ETag         string
	Size         int64
	LastModified string
}

// Embedder turns chunk text into vectors (spec.md §4.3).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// ChatModel is the LLM boundary shared by EntityExtractor, sub-agents, and
// the supervisor's synthesis step (spec.md §4.2, §4.10, §4.11).
type ChatModel interface {
	Chat(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (ChatResponse, error)
}

// ChatMessage is one role-tagged message in a chat completion request.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolSpec describes one callable tool's name, description, and JSON Schema
// input shape, as sent to the chat model's tool-use API.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolCall is a model-requested invocation of one ToolSpec.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatResponse is one chat completion turn, which may request further tool
// calls instead of (or alongside) final content.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}
