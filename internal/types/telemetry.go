package types

import (
	"encoding/json"
	"time"
)

// TelemetryEventKind enumerates the append-only event kinds emitted to the
// TelemetryLog (spec.md §4.13).
type TelemetryEventKind string

const (
	EventSessionStart    TelemetryEventKind = "session_start"
	EventSessionEnd      TelemetryEventKind = "session_end"
	EventToolCall        TelemetryEventKind = "tool_call"
	EventQueryAttempt    TelemetryEventKind = "query_attempt"
	EventError           TelemetryEventKind = "error"
	EventIngestStep      TelemetryEventKind = "ingest_step"
	EventWhitelistDenied TelemetryEventKind = "whitelist_denied"
)

// Outcome classifies how a telemetry-tracked operation ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// TelemetryEvent is one append-only record in the TelemetryLog.
type TelemetryEvent struct {
	SessionID   string              `json:"session_id"`
	SpanID      string              `json:"span_id,omitempty"`
	ParentSpanID string             `json:"parent_span_id,omitempty"`
	Event       TelemetryEventKind  `json:"event"`
	Timestamp   time.Time           `json:"timestamp"`
	DurationMS  int64               `json:"duration_ms"`
	Outcome     Outcome             `json:"outcome"`
	Payload     json.RawMessage     `json:"payload,omitempty"`
}

// TableName pins the GORM table name for telemetry event rows.
func (TelemetryEvent) TableName() string { return "telemetry_events" }

// TelemetrySessionSummary is the one-row-per-session mirror TelemetryLog
// writes to the relational store on session_end, so success rates and
// duration distributions can be queried with SQL instead of replaying the
// JSONL file (spec.md §4.13, SPEC_FULL.md §5.13).
type TelemetrySessionSummary struct {
	SessionID  string    `json:"session_id" gorm:"primaryKey"`
	Outcome    Outcome   `json:"outcome"`
	DurationMS int64     `json:"duration_ms"`
	EndedAt    time.Time `json:"ended_at"`
}

// TableName pins the GORM table name for session summary rows.
func (TelemetrySessionSummary) TableName() string { return "telemetry_sessions" }
