package rewrite

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned by Run after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// task pairs a unit of blocking work with the channel its outcome is
// delivered on.
type task struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool is a bounded worker pool for compute-bound generation work. Intake
// goroutines hand work off to a fixed set of workers and wait with a
// deadline, so HTTP handling stays responsive while at most Size requests
// generate concurrently across the process.
//
// Within one request all chunks run on a single worker, sequentially; the
// pool bounds concurrency across requests, not within them.
type Pool struct {
	tasks chan task

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
	wg       sync.WaitGroup
}

// NewPool starts a pool with size workers. Size values below 1 are raised
// to 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{tasks: make(chan task)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		// The deadline may already have passed while queued; skip the work
		// rather than burn a worker on an abandoned request.
		if err := t.ctx.Err(); err != nil {
			t.done <- err
			continue
		}
		t.done <- t.fn(t.ctx)
	}
}

// Run executes fn on a pool worker and waits for it to finish or for ctx to
// expire, whichever comes first. When ctx expires the ctx error is returned
// immediately and the work is abandoned: fn keeps running on its worker until
// it observes ctx.Done(), and its outcome is discarded. Callers must therefore
// apply side effects (cache writes, accounting) only after Run returns nil.
func (p *Pool) Run(ctx context.Context, fn func(context.Context) error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.inflight.Add(1)
	p.mu.Unlock()
	defer p.inflight.Done()

	t := task{ctx: ctx, fn: fn, done: make(chan error, 1)}

	select {
	case p.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for in-flight tasks to drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.inflight.Wait()
	close(p.tasks)
	p.wg.Wait()
}
