// Package monitor implements SourceMonitor: a long-running background
// scanner that polls an ObjectStore, diffs against a durable
// ProcessedLedger, and dispatches IngestionPipeline runs (spec.md §4.8).
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wk-archive/meetingmind/internal/types"
)

// ledgerFile is the on-disk JSON shape (spec.md §6 "Persisted state
// layout").
type ledgerFile struct {
	ProcessedFiles []types.ProcessedFileRecord `json:"processed_files"`
	LastUpdated    time.Time                   `json:"last_updated"`
}

// Ledger is the ProcessedLedger. It is written by the SourceMonitor loop
// and by the ingest task handler (through Monitor.RecordOutcome); writes
// are serialized by mu, and other callers only read a snapshot.
type Ledger struct {
	mu      sync.RWMutex
	path    string
	records map[string]types.ProcessedFileRecord
}

// LoadLedger reads the ledger file at path, treating a missing file as an
// empty ledger.
func LoadLedger(path string) (*Ledger, error) {
	l := &Ledger{path: path, records: map[string]types.ProcessedFileRecord{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	var parsed ledgerFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", path, err)
	}
	for _, r := range parsed.ProcessedFiles {
		l.records[r.ID] = r
	}
	return l, nil
}

// Lookup returns the record for an external file id, if any.
func (l *Ledger) Lookup(externalFileID string) (types.ProcessedFileRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.records[externalFileID]
	return r, ok
}

// Snapshot returns a copy of every record currently held, safe for
// concurrent readers outside the monitor loop.
func (l *Ledger) Snapshot() []types.ProcessedFileRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.ProcessedFileRecord, 0, len(l.records))
	for _, r := range l.records {
		out = append(out, r)
	}
	return out
}

// Record sets one file's terminal state and persists the ledger atomically
// via write-temp-then-rename. The monitor loop calls it on fetch or enqueue
// failure, and the ingest task handler calls it once a task completes; the
// lock is held until the file is written, so concurrent calls persist in
// order.
func (l *Ledger) Record(externalFileID, contentHash string, state types.LedgerState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[externalFileID] = types.ProcessedFileRecord{
		ID: externalFileID, ContentHash: contentHash, State: state, LastSeen: time.Now(),
	}
	snapshot := make([]types.ProcessedFileRecord, 0, len(l.records))
	for _, r := range l.records {
		snapshot = append(snapshot, r)
	}

	return persistAtomic(l.path, ledgerFile{ProcessedFiles: snapshot, LastUpdated: time.Now()})
}

func persistAtomic(path string, content ledgerFile) error {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close ledger temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename ledger temp file: %w", err)
	}
	return nil
}
