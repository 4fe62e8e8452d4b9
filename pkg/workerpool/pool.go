// Package workerpool provides a bounded goroutine pool for background
// backend calls.
//
// A Pool limits how many calls run at once. When every worker is busy,
// Submit returns ErrPoolFull immediately; SubmitCtx waits for a free slot
// until the context is done.
//
//	pool := workerpool.New(4)
//	defer pool.Shutdown()
//
//	err := pool.SubmitCtx(ctx, func() { fetchMenu() })
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolFull is returned by Submit when all workers are busy and the task
// queue is at capacity.
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed is returned after Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a bounded goroutine pool.
type Pool struct {
	// mu guards closed and sends on tasks so Submit never writes to a
	// closed channel.
	mu      sync.RWMutex
	closed  bool
	tasks   chan func()
	wg      sync.WaitGroup
	onPanic func(recovered interface{})
}

// Option customises a Pool.
type Option func(*Pool)

// WithPanicHandler is called with the recovered value when a task panics.
func WithPanicHandler(fn func(recovered interface{})) Option {
	return func(p *Pool) { p.onPanic = fn }
}

// New creates a Pool with the given number of workers. size <= 0 means 1.
func New(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		// Buffer equal to 2× the worker count so bursts can be absorbed.
		tasks: make(chan func(), size*2),
	}
	for _, o := range opts {
		o(p)
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit enqueues task without blocking.
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitCtx blocks until the task is queued, ctx is done, or the pool is
// closed.
func (p *Pool) SubmitCtx(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("workerpool: submit: %w", ctx.Err())
	}
}

// Shutdown stops accepting new tasks and waits for queued and in-flight
// tasks to finish. It is safe to call multiple times.
//
// A caller blocked in SubmitCtx holds the read lock, so Shutdown waits for it
// to be queued or to give up first.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.safeRun(task)
	}
}

// safeRun executes task, recovering from panics so a bad task doesn't kill
// the worker goroutine.
func (p *Pool) safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil && p.onPanic != nil {
			p.onPanic(r)
		}
	}()
	task()
}
