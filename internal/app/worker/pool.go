package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	apperrors "vm-transcriber/internal/app/errors"
)

// ErrPoolClosed is returned by Submit once the pool is draining.
var ErrPoolClosed = apperrors.New("worker pool closed")

// Pool bounds how many blocking jobs (ffmpeg, whisper) run at once. Callers
// beyond the limit queue on the semaphore until a slot frees up or their
// context ends.
type Pool struct {
	sem    *semaphore.Weighted
	size   int64
	active atomic.Int64

	// mu orders wg.Add against Close so Wait never races a late Add.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool that runs at most size jobs concurrently.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: int64(size)}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int {
	return int(p.size)
}

// Active returns the number of jobs currently running.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Submit runs fn on the pool and waits for its result. When ctx ends first
// Submit returns ctx.Err(); the job keeps its slot until fn returns. Callers
// still queued when the pool closes get ErrPoolClosed.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.isClosed() {
		return zero, ErrPoolClosed
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("waiting for worker: %w", err)
	}
	if !p.track() {
		p.sem.Release(1)
		return zero, ErrPoolClosed
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	p.active.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		defer p.active.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("worker panic: %v", r)}
			}
		}()

		v, err := fn(ctx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// track registers a job with the wait group unless the pool is closed.
func (p *Pool) track() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.wg.Add(1)
	return true
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close stops accepting new jobs. Jobs already running keep going.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

// Wait blocks until every submitted job has returned or ctx ends. It reports
// ctx.Err() when jobs were abandoned.
func (p *Pool) Wait(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain closes the pool and waits for running jobs.
func (p *Pool) Drain(ctx context.Context) error {
	p.Close()
	return p.Wait(ctx)
}
