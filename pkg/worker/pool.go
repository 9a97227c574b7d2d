package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when the task queue cannot take more work.
var ErrQueueFull = errors.New("task queue is full")

// ErrStopped is returned when work is submitted after shutdown began.
var ErrStopped = errors.New("worker pool is stopped")

// Task is one background unit of work.
type Task func(ctx context.Context)

// Pool runs tasks on a fixed set of workers so long-running work never
// blocks the request path. Tasks live only as long as the process: work
// in flight at restart is lost.
type Pool struct {
	tasks      chan Task
	numWorkers int
	wg         sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		tasks:      make(chan Task, queueSize),
		numWorkers: numWorkers,
	}
}

// Start launches the workers. Tasks receive ctx, so cancelling it stops
// in-flight external commands along with the server.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task(ctx)
			}
		}()
	}
	zerolog.Ctx(ctx).Info().Int("workers", p.numWorkers).Msg("worker pool started")
}

// Submit enqueues a task without blocking. Submissions racing shutdown
// get ErrStopped; the queue channel is only closed under the same lock,
// so the send can never hit a closed channel.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}

	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued and in-flight tasks. Safe
// to call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
