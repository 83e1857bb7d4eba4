// Package engine runs load jobs on a bounded set of worker slots.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/alexisbeaulieu97/volsource/internal/logger"
)

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = errors.New("worker pool is closed")

// Job is one unit of work. It must return promptly once ctx is done.
type Job func(ctx context.Context)

// Pool limits how many jobs run at once. Submit never blocks the caller: a job
// waits for a free slot on its own goroutine.
type Pool struct {
	slots   chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	running atomic.Int64
	logger  *logger.Logger
}

// NewPool creates a pool with the given number of slots (at least one).
func NewPool(workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		slots:  make(chan struct{}, workers),
		logger: log,
	}
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return cap(p.slots)
}

// Running returns the number of jobs currently holding a slot.
func (p *Pool) Running() int {
	return int(p.running.Load())
}

// Submit schedules job. If ctx ends before a slot frees up, job still runs
// with the ended ctx so it can record its outcome.
func (p *Pool) Submit(ctx context.Context, name string, job Job) error {
	if job == nil {
		return fmt.Errorf("job %q is nil", name)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.slots <- struct{}{}:
			defer func() { <-p.slots }()
		case <-ctx.Done():
			p.logger.WithField("job", name).Debug("job cancelled before a worker slot freed up")
			p.run(ctx, name, job)
			return
		}

		p.running.Add(1)
		defer p.running.Add(-1)
		p.run(ctx, name, job)
	}()
	return nil
}

func (p *Pool) run(ctx context.Context, name string, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("job", name).Error(fmt.Errorf("panic: %v", r), "job panicked")
		}
	}()
	job(ctx)
}

// Wait blocks until every submitted job has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close rejects further submissions and waits for submitted jobs.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}
