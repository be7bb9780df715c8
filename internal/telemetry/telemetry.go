// Package telemetry implements the append-only event log and in-process
// aggregator described in spec.md §4.13.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types"
)

// SessionMirror receives one row per session_end event, letting callers
// query success rates and durations with SQL instead of replaying the
// JSONL file (SPEC_FULL.md §5.13).
type SessionMirror interface {
	UpsertTelemetrySession(ctx context.Context, summary types.TelemetrySessionSummary) error
}

// Log is the append-only JSONL sink plus an in-process rate aggregator.
type Log struct {
	mu     sync.Mutex
	file   *os.File
	mirror SessionMirror

	agg aggregate
}

type aggregate struct {
	totalsByEvent   map[types.TelemetryEventKind]int
	outcomesByEvent map[types.TelemetryEventKind]map[types.Outcome]int
	durationSumMS   map[types.TelemetryEventKind]int64
}

// Open appends to (or creates) the JSONL file at path.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open telemetry log %s: %w", path, err)
	}
	return &Log{
		file: f,
		agg: aggregate{
			totalsByEvent:   map[types.TelemetryEventKind]int{},
			outcomesByEvent: map[types.TelemetryEventKind]map[types.Outcome]int{},
			durationSumMS:   map[types.TelemetryEventKind]int64{},
		},
	}, nil
}

// WithSessionMirror attaches a relational sink that receives one upsert per
// session_end event. Optional: a nil mirror (the default) leaves the JSONL
// file as the only sink.
func (l *Log) WithSessionMirror(mirror SessionMirror) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mirror = mirror
}

// Append writes one event as a JSON line and folds it into the aggregate.
func (l *Log) Append(event types.TelemetryEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal telemetry event: %w", err)
	}

	l.mu.Lock()
	l.agg.totalsByEvent[event.Event]++
	if l.agg.outcomesByEvent[event.Event] == nil {
		l.agg.outcomesByEvent[event.Event] = map[types.Outcome]int{}
	}
	l.agg.outcomesByEvent[event.Event][event.Outcome]++
	l.agg.durationSumMS[event.Event] += event.DurationMS
	mirror := l.mirror
	_, err = l.file.Write(append(line, '\n'))
	l.mu.Unlock()

	if err != nil {
		return fmt.Errorf("write telemetry event: %w", err)
	}

	if mirror != nil && event.Event == types.EventSessionEnd {
		summary := types.TelemetrySessionSummary{
			SessionID:  event.SessionID,
			Outcome:    event.Outcome,
			DurationMS: event.DurationMS,
			EndedAt:    event.Timestamp,
		}
		if err := mirror.UpsertTelemetrySession(context.Background(), summary); err != nil {
			logger.GetLogger(context.Background()).Warnf("telemetry session mirror failed: %v", err)
		}
	}
	return nil
}

// Stats is the aggregate view for offline analysis; the /health endpoint
// does not report it.
type Stats struct {
	Total           int
	SuccessRate     float64
	AverageDuration time.Duration
}

// StatsFor computes success rate and average duration for one event kind.
func (l *Log) StatsFor(event types.TelemetryEventKind) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := l.agg.totalsByEvent[event]
	if total == 0 {
		return Stats{}
	}
	success := l.agg.outcomesByEvent[event][types.OutcomeSuccess]
	avg := time.Duration(l.agg.durationSumMS[event]/int64(total)) * time.Millisecond
	return Stats{Total: total, SuccessRate: float64(success) / float64(total), AverageDuration: avg}
}

// Close releases the underlying file handle.
func (l *Log) Close() error {
	return l.file.Close()
}
