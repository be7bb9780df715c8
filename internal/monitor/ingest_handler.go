package monitor

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/wk-archive/meetingmind/internal/ingestion/pipeline"
)

// IngestHandler adapts a Pipeline into an asynq task handler that also
// records the terminal outcome against the Monitor's ProcessedLedger once
// the task completes, per spec.md §5's rule that the ledger only records
// Succeeded after the store write is confirmed (see dispatch's comment).
type IngestHandler struct {
	pipeline *pipeline.Pipeline
	monitor  *Monitor
}

// NewIngestHandler builds an IngestHandler wiring p's runs back into m's
// ledger.
func NewIngestHandler(p *pipeline.Pipeline, m *Monitor) *IngestHandler {
	return &IngestHandler{pipeline: p, monitor: m}
}

// Handle implements interfaces.TaskHandler and asynq.HandlerFunc's target
// signature.
func (h *IngestHandler) Handle(ctx context.Context, t *asynq.Task) error {
	externalFileID, contentHash, decodeErr := pipeline.DecodeTaskPayload(t)

	err := h.pipeline.Handle(ctx, t)

	if decodeErr != nil {
		return err
	}
	outcome := pipeline.OutcomeSucceeded
	if err != nil {
		outcome = pipeline.OutcomeFailed
	}
	if recordErr := h.monitor.RecordOutcome(externalFileID, contentHash, outcome); recordErr != nil {
		if err == nil {
			return recordErr
		}
	}
	return err
}
