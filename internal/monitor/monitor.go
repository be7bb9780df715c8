package monitor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wk-archive/meetingmind/internal/common"
	"github.com/wk-archive/meetingmind/internal/ingestion/pipeline"
	"github.com/wk-archive/meetingmind/internal/types"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// Status is the snapshot returned by Monitor.Status().
type Status struct {
	Running        bool
	LastScan       time.Time
	PendingCount   int
	ProcessedCount int
	ErrorCount     int
}

// Config bounds the scan loop.
type Config struct {
	PollInterval  time.Duration
	GraceDeadline time.Duration
	Bucket        string
	Prefix        string
}

func (c Config) withDefaults() Config {
	if c.PollInterval < 10*time.Second {
		c.PollInterval = 60 * time.Second
	}
	if c.GraceDeadline == 0 {
		c.GraceDeadline = 120 * time.Second
	}
	return c
}

// Monitor is the single-threaded cooperative scan loop described in
// spec.md §4.8. It dispatches each new or previously-Failed file as an
// asynq task rather than running the pipeline inline, so in-flight work
// survives a process restart.
type Monitor struct {
	cfg      Config
	store    interfaces.ObjectStore
	ledger   *Ledger
	client   *asynq.Client
	queue    string

	mu          sync.Mutex
	running     bool
	stopCh      chan struct{}
	triggerCh   chan struct{}
	lastScan    time.Time
	processed   atomic.Int64
	errors      atomic.Int64
}

// New builds a Monitor.
func New(cfg Config, store interfaces.ObjectStore, ledger *Ledger, client *asynq.Client, queue string) *Monitor {
	return &Monitor{
		cfg: cfg.withDefaults(), store: store, ledger: ledger, client: client, queue: queue,
		stopCh: make(chan struct{}), triggerCh: make(chan struct{}, 1),
	}
}

// Start runs the scan loop until Stop is called or ctx is cancelled.
// Running workers (here, the enqueue step, which is fast) are allowed to
// finish up to GraceDeadline before shutdown proceeds.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return
		case <-m.stopCh:
			m.shutdown()
			return
		case <-ticker.C:
			m.scanOnce(ctx)
		case <-m.triggerCh:
			m.scanOnce(ctx)
		}
	}
}

func (m *Monitor) shutdown() {
	graceCtx, cancel := context.WithTimeout(context.Background(), m.cfg.GraceDeadline)
	defer cancel()
	<-graceCtx.Done()

	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

// Stop signals the loop to exit.
func (m *Monitor) Stop() {
	select {
	case m.stopCh <- struct{}{}:
	default:
	}
}

// TriggerNow forces an immediate scan without waiting for the next tick.
func (m *Monitor) TriggerNow() {
	select {
	case m.triggerCh <- struct{}{}:
	default:
	}
}

// Status reports the monitor's current state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Running:        m.running,
		LastScan:       m.lastScan,
		ProcessedCount: int(m.processed.Load()),
		ErrorCount:     int(m.errors.Load()),
	}
}

func (m *Monitor) scanOnce(ctx context.Context) {
	common.PipelineInfo(ctx, "monitor", "scan_start", nil)

	objects, err := m.store.ListObjects(ctx, m.cfg.Bucket, m.cfg.Prefix)
	if err != nil {
		common.PipelineError(ctx, "monitor", "list_failed", map[string]any{"error": err.Error()})
		m.errors.Add(1)
		return
	}

	m.mu.Lock()
	m.lastScan = time.Now()
	m.mu.Unlock()

	for _, obj := range objects {
		record, seen := m.ledger.Lookup(obj.Key)
		if seen && record.State == types.LedgerStateSucceeded && record.ContentHash == obj.ETag {
			continue
		}
		m.dispatch(ctx, obj)
	}
}

func (m *Monitor) dispatch(ctx context.Context, obj interfaces.ObjectInfo) {
	payload, err := m.store.GetObject(ctx, m.cfg.Bucket, obj.Key)
	if err != nil {
		common.PipelineError(ctx, "monitor", "fetch_failed", map[string]any{"key": obj.Key, "error": err.Error()})
		m.errors.Add(1)
		_ = m.ledger.Record(obj.Key, obj.ETag, types.LedgerStateFailed)
		return
	}
	contentHash := contentHashOf(payload)

	task, err := pipeline.NewIngestTask(obj.Key, contentHash, m.cfg.Bucket, obj.Key, payload)
	if err != nil {
		common.PipelineError(ctx, "monitor", "build_task_failed", map[string]any{"key": obj.Key, "error": err.Error()})
		m.errors.Add(1)
		return
	}

	if _, err := m.client.EnqueueContext(ctx, task, asynq.Queue(m.queue)); err != nil {
		common.PipelineError(ctx, "monitor", "enqueue_failed", map[string]any{"key": obj.Key, "error": err.Error()})
		m.errors.Add(1)
		_ = m.ledger.Record(obj.Key, contentHash, types.LedgerStateFailed)
		return
	}
	// The ledger is only marked Succeeded once the pipeline confirms the
	// store write, via RecordOutcome called from the ingest task handler
	// (wired in internal/runtime). Until then the file keeps its previous
	// ledger state, so a scan that runs before the task completes dispatches
	// it again.
	m.processed.Add(1)
}

// RecordOutcome is called by the asynq result handler once a dispatched
// ingestion task has actually completed, per spec.md §5's rule that the
// ledger only records Succeeded after the store write is confirmed.
func (m *Monitor) RecordOutcome(externalFileID, contentHash string, outcome pipeline.Outcome) error {
	state := types.LedgerStateFailed
	if outcome == pipeline.OutcomeSucceeded {
		state = types.LedgerStateSucceeded
	}
	return m.ledger.Record(externalFileID, contentHash, state)
}

func contentHashOf(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
