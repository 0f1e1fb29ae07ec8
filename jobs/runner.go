// Package jobs runs background computations for the guidance loop. Work runs on a bounded pool
// of goroutines, and results come back through a delivery queue that the guidance goroutine
// drains, so callbacks never race with the state they update.
package jobs

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"golang.org/x/sync/semaphore"

	"go.viam.com/autosteer/logging"
)

// ErrSuperseded labels the completion of a run that was replaced by a newer one. It is only
// logged, never delivered.
var ErrSuperseded = errors.New("run superseded by a newer one")

// ErrClosed is returned when work is submitted to a closed Runner.
var ErrClosed = errors.New("job runner is closed")

// Runner executes task graphs with at most a fixed number of tasks running at once.
type Runner struct {
	logger logging.Logger
	clock  clock.Clock
	sem    *semaphore.Weighted

	workers *utils.StoppableWorkers

	mu         sync.Mutex
	deliveries []func()
	closed     bool
	notify     chan struct{}
}

// NewRunner returns a Runner allowing workers concurrent tasks. A nil clock means the wall clock.
func NewRunner(workers int, logger logging.Logger, clk clock.Clock) *Runner {
	if workers < 1 {
		workers = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Runner{
		logger:  logger.Sublogger("jobs"),
		clock:   clk,
		sem:     semaphore.NewWeighted(int64(workers)),
		workers: utils.NewBackgroundStoppableWorkers(),
		notify:  make(chan struct{}, 1),
	}
}

// Notify returns a channel that receives a value whenever deliveries are pending.
func (r *Runner) Notify() <-chan struct{} {
	return r.notify
}

// Drain runs every pending delivery on the calling goroutine, in completion order, and returns
// how many ran. Deliveries queued while draining run in the same call.
func (r *Runner) Drain() int {
	count := 0
	for {
		r.mu.Lock()
		pending := r.deliveries
		r.deliveries = nil
		r.mu.Unlock()
		if len(pending) == 0 {
			return count
		}
		for _, deliver := range pending {
			deliver()
			count++
		}
	}
}

// Await drains deliveries until done returns true or ctx ends.
func (r *Runner) Await(ctx context.Context, done func() bool) error {
	for {
		r.Drain()
		if done() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.notify:
		}
	}
}

// Run executes g on the pool and waits for it. Nothing is queued for delivery.
func (r *Runner) Run(ctx context.Context, g *Graph) error {
	if r.isClosed() {
		return ErrClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.workers.Context(), cancel)
	defer stop()
	begin := r.clock.Now()
	r.logger.CDebugw(ctx, "running graph", "graph", g.Name())
	err := g.execute(ctx, r.sem, nil)
	r.logger.CDebugw(ctx, "graph returned", "graph", g.Name(), "elapsed", r.clock.Since(begin), "error", err)
	return err
}

// Close cancels all running graphs, waits for them to return and drops pending deliveries.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.workers.Stop()

	r.mu.Lock()
	r.deliveries = nil
	r.mu.Unlock()
}

func (r *Runner) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Runner) enqueue(deliver func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.deliveries = append(r.deliveries, deliver)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// goBackground starts f on a worker that Close cancels and waits for. f receives the runner's
// context.
func (r *Runner) goBackground(f func(ctx context.Context)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.workers.Add(f)
	return true
}
