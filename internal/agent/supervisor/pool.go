package supervisor

import (
	"context"
	"fmt"

	"github.com/panjf2000/ants/v2"

	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types"
)

// Pool bounds the number of concurrent query sessions a process will run
// at once (spec.md §9 Design Note, Open Question on the worker pool: ants
// is reserved here for session concurrency, distinct from the ingestion
// side's asynq-backed worker pool).
type Pool struct {
	inner *ants.Pool
}

// NewPool builds a session pool with the given concurrency size.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		size = 1
	}
	inner, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("build session pool: %w", err)
	}
	return &Pool{inner: inner}, nil
}

// Submit runs question through a fresh Session on a pooled worker, blocking
// the caller until a worker slot is available, and delivers the answer or
// error on the returned channels once the session completes.
func (p *Pool) Submit(ctx context.Context, id, question string, history []types.Turn, deps Deps) (<-chan *types.SupervisorAnswer, <-chan error) {
	answerCh := make(chan *types.SupervisorAnswer, 1)
	errCh := make(chan error, 1)

	err := p.inner.Submit(func() {
		session := NewSession(id, question, history, deps)
		answer, runErr := session.Run(ctx)
		if runErr != nil {
			errCh <- runErr
			return
		}
		answerCh <- answer
	})
	if err != nil {
		logger.GetLogger(ctx).Warnf("session pool submit failed for %s: %v", id, err)
		errCh <- fmt.Errorf("submit session %s: %w", id, err)
	}
	return answerCh, errCh
}

// Release closes the pool to new submissions and tears it down; it does not
// wait for sessions that are already running.
func (p *Pool) Release() {
	p.inner.Release()
}

// Running reports the number of sessions currently executing.
func (p *Pool) Running() int {
	return p.inner.Running()
}
