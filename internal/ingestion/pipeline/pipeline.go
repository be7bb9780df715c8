// Package pipeline drives one source end-to-end through parsing, chunking,
// extraction, embedding, classification, and dual-store writes (spec.md
// §4.7). It implements interfaces.TaskHandler so it can be registered
// directly as an asynq task handler.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/common"
	"github.com/wk-archive/meetingmind/internal/ingestion/chunker"
	"github.com/wk-archive/meetingmind/internal/ingestion/classifier"
	"github.com/wk-archive/meetingmind/internal/types"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// TaskTypeIngestSource is the asynq task type name this pipeline handles.
const TaskTypeIngestSource = "ingestion:source"

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "Succeeded"
	OutcomeFailed    Outcome = "Failed"
)

// Extractor is the subset of extractor.Extractor the pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, sourceID string, chunks []types.Chunk) (types.ExtractionResult, error)
}

// Parser turns a raw object-store payload into a normalized artifact
// (spec.md §4.7 step 1).
type Parser interface {
	Parse(ctx context.Context, externalFileID string, contentHash string, payload []byte) (types.NormalizedArtifact, error)
}

// Result summarizes one pipeline run for the caller (SourceMonitor).
type Result struct {
	SourceID string
	Outcome  Outcome
	Warning  string
}

// Pipeline wires the per-source ingestion steps together.
type Pipeline struct {
	parser     Parser
	chunker    *chunker.Chunker
	extractor  Extractor
	embedder   interfaces.Embedder
	graph      interfaces.GraphStore
	relational interfaces.RelationalStore
	leaders    map[string]bool
}

// Deps bundles the Pipeline's collaborators.
type Deps struct {
	Parser     Parser
	Chunker    *chunker.Chunker
	Extractor  Extractor
	Embedder   interfaces.Embedder
	Graph      interfaces.GraphStore
	Relational interfaces.RelationalStore
	Leaders    map[string]bool
}

// New builds a Pipeline. Either Graph or Relational may be nil but not
// both, mirroring spec.md §4.5's "at least one enabled writer" contract.
func New(deps Deps) *Pipeline {
	return &Pipeline{
		parser:     deps.Parser,
		chunker:    deps.Chunker,
		extractor:  deps.Extractor,
		embedder:   deps.Embedder,
		graph:      deps.Graph,
		relational: deps.Relational,
		leaders:    deps.Leaders,
	}
}

// ingestTaskPayload is the asynq task payload shape.
type ingestTaskPayload struct {
	ExternalFileID string `json:"external_file_id"`
	ContentHash    string `json:"content_hash"`
	Bucket         string `json:"bucket"`
	Key            string `json:"key"`
	Payload        []byte `json:"payload"`
}

// NewIngestTask builds an asynq.Task carrying one source's raw payload.
func NewIngestTask(externalFileID, contentHash, bucket, key string, payload []byte) (*asynq.Task, error) {
	body, err := json.Marshal(ingestTaskPayload{
		ExternalFileID: externalFileID,
		ContentHash:    contentHash,
		Bucket:         bucket,
		Key:            key,
		Payload:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ingest task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeIngestSource, body), nil
}

// DecodeTaskPayload unwraps an ingestion task's external file id and
// content hash, for callers (the monitor's asynq result handler) that need
// to record the outcome against the ProcessedLedger after Handle returns.
func DecodeTaskPayload(t *asynq.Task) (externalFileID, contentHash string, err error) {
	var payload ingestTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return "", "", fmt.Errorf("%w: unmarshal ingest task: %v", apperr.ErrBadSource, err)
	}
	return payload.ExternalFileID, payload.ContentHash, nil
}

// Handle implements interfaces.TaskHandler, unwrapping the asynq task and
// running Run. Errors are returned so asynq's own retry policy applies at
// the task-queue layer; the source's own retry discipline stays inside
// §4.2/§4.3 as spec.md §4.7 requires.
func (p *Pipeline) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ingestTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("%w: unmarshal ingest task: %v", apperr.ErrBadSource, err)
	}
	result, err := p.Run(ctx, payload.ExternalFileID, payload.ContentHash, payload.Payload)
	if err != nil {
		return err
	}
	if result.Outcome == OutcomeFailed {
		return fmt.Errorf("%w: source %s failed ingestion", apperr.ErrIngestFailed, result.SourceID)
	}
	return nil
}

// Run drives one source through the full pipeline and returns its terminal
// outcome. It never panics on subsystem failure; every step degrades per
// its own documented policy.
func (p *Pipeline) Run(ctx context.Context, externalFileID, contentHash string, payload []byte) (Result, error) {
	sourceID := deriveSourceID(externalFileID, contentHash)
	started := time.Now()
	common.PipelineInfo(ctx, "ingestion", "start", map[string]any{"source_id": sourceID})

	artifact, err := p.parser.Parse(ctx, externalFileID, contentHash, payload)
	if err != nil {
		common.PipelineError(ctx, "ingestion", "parse_failed", map[string]any{"source_id": sourceID, "error": err.Error()})
		return Result{SourceID: sourceID, Outcome: OutcomeFailed}, err
	}

	chunks, err := p.chunker.Chunk(sourceID, artifact, p.leaders)
	if err != nil || len(chunks) == 0 {
		common.PipelineError(ctx, "ingestion", "chunk_failed", map[string]any{"source_id": sourceID})
		return Result{SourceID: sourceID, Outcome: OutcomeFailed}, fmt.Errorf("%w: zero chunks produced", apperr.ErrBadSource)
	}

	extraction, err := p.extractor.Extract(ctx, sourceID, chunks)
	if err != nil {
		// Extractor degrades to empty internally; an error here means the
		// extractor itself is misconfigured, not a transient failure, but
		// per spec.md §4.7's zero-entity policy we still keep going.
		common.PipelineWarn(ctx, "ingestion", "extract_degraded", map[string]any{"source_id": sourceID, "error": err.Error()})
		extraction = types.ExtractionResult{}
	}

	p.embedChunks(ctx, sourceID, chunks)

	classification := classifier.Classify(
		artifact.Title, artifact.Metadata.Category, artifact.Metadata.Participants,
		artifact.Metadata.Filename, artifact.Metadata.Override,
	)

	source := types.Source{
		ID:                   sourceID,
		ExternalFileID:       externalFileID,
		ContentHash:          contentHash,
		Kind:                 artifact.Kind,
		Title:                artifact.Title,
		EffectiveDate:        artifact.EffectiveDate,
		RawPayload:           payload,
		ConfidentialityLevel: classification.Level,
		DocumentStatus:       classification.Status,
		Tags:                 classification.Tags,
		CreatedAt:            time.Now(),
		LastSeen:             time.Now(),
	}

	graphOK, relOK := p.writeStores(ctx, source, chunks, extraction)

	outcome := OutcomeFailed
	var warning string
	switch {
	case graphOK && relOK:
		outcome = OutcomeSucceeded
	case graphOK || relOK:
		outcome = OutcomeSucceeded
		partialErr := fmt.Errorf("%w: source %s wrote only one of graph/relational", apperr.ErrPartialSuccess, sourceID)
		warning = partialErr.Error()
		common.PipelineWarn(ctx, "ingestion", "partial_success", map[string]any{"source_id": sourceID, "error": warning})
	}

	common.PipelineInfo(ctx, "ingestion", "done", map[string]any{
		"source_id": sourceID, "outcome": string(outcome), "duration_ms": time.Since(started).Milliseconds(),
	})
	return Result{SourceID: sourceID, Outcome: outcome, Warning: warning}, nil
}

func (p *Pipeline) embedChunks(ctx context.Context, sourceID string, chunks []types.Chunk) {
	if p.embedder == nil {
		return
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		common.PipelineWarn(ctx, "ingestion", "embed_failed", map[string]any{"source_id": sourceID, "error": err.Error()})
		return
	}
	for i := range chunks {
		if i < len(vectors) {
			chunks[i].Embedding = vectors[i]
		}
	}
}

// writeStores calls GraphWriter and RelationalWriter independently and
// reports which succeeded, per spec.md §4.7's partial-success rule.
func (p *Pipeline) writeStores(ctx context.Context, source types.Source, chunks []types.Chunk, extraction types.ExtractionResult) (graphOK, relOK bool) {
	if p.graph != nil {
		if err := p.writeGraph(ctx, source, chunks, extraction); err != nil {
			common.PipelineError(ctx, "ingestion", "graph_write_failed", map[string]any{"source_id": source.ID, "error": err.Error()})
		} else {
			graphOK = true
		}
	}
	if p.relational != nil {
		if err := p.writeRelational(ctx, source, chunks, extraction); err != nil {
			common.PipelineError(ctx, "ingestion", "relational_write_failed", map[string]any{"source_id": source.ID, "error": err.Error()})
		} else {
			relOK = true
		}
	}
	return graphOK, relOK
}

func (p *Pipeline) writeGraph(ctx context.Context, source types.Source, chunks []types.Chunk, extraction types.ExtractionResult) error {
	if err := p.graph.UpsertSource(ctx, source); err != nil {
		return err
	}
	if err := p.graph.UpsertEntities(ctx, extraction.Entities, source.EffectiveDate); err != nil {
		return err
	}
	if err := p.graph.UpsertChunks(ctx, source.ID, chunks); err != nil {
		return err
	}
	if err := p.graph.UpsertDecisions(ctx, extraction.Decisions); err != nil {
		return err
	}
	if err := p.graph.UpsertActions(ctx, extraction.Actions); err != nil {
		return err
	}
	return p.graph.LinkMentions(ctx, extraction.Mentions)
}

func (p *Pipeline) writeRelational(ctx context.Context, source types.Source, chunks []types.Chunk, extraction types.ExtractionResult) error {
	if err := p.relational.UpsertSource(ctx, source); err != nil {
		return err
	}
	if err := p.relational.UpsertEntities(ctx, extraction.Entities, source.EffectiveDate); err != nil {
		return err
	}
	if err := p.relational.UpsertChunks(ctx, chunks); err != nil {
		return err
	}
	if err := p.relational.UpsertDecisions(ctx, extraction.Decisions); err != nil {
		return err
	}
	return p.relational.UpsertActions(ctx, extraction.Actions)
}

func deriveSourceID(externalFileID, contentHash string) string {
	return "src:" + externalFileID + ":" + contentHash[:min8(len(contentHash))]
}

func min8(n int) int {
	if n < 8 {
		return n
	}
	return 8
}
