package jobs

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"go.viam.com/autosteer/logging"
)

// Controller owns at most one in-flight graph. Starting a new graph cancels the previous one,
// and a cancelled or replaced run never reaches its completion callback.
type Controller struct {
	runner *Runner
	logger logging.Logger

	mu      sync.Mutex
	current *run
}

type run struct {
	id         uuid.UUID
	cancel     func()
	superseded atomic.Bool
}

// NewController returns a Controller executing on r.
func (r *Runner) NewController(name string) *Controller {
	return &Controller{runner: r, logger: r.logger.Sublogger(name)}
}

// Start cancels the current graph, if any, and runs g. onDone is called on the draining goroutine
// with the graph's error, unless the run is superseded or cancelled first.
func (c *Controller) Start(g *Graph, onDone func(err error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()

	ctx, cancel := context.WithCancel(c.runner.workers.Context())
	current := &run{id: uuid.New(), cancel: cancel}
	c.current = current

	post := func(f func()) {
		if current.superseded.Load() {
			return
		}
		c.runner.enqueue(func() {
			if !current.superseded.Load() {
				f()
			}
		})
	}

	started := c.runner.goBackground(func(context.Context) {
		defer cancel()
		begin := c.runner.clock.Now()
		c.logger.Debugw("starting", "graph", g.Name(), "run", current.id)
		err := g.execute(ctx, c.runner.sem, post)
		elapsed := c.runner.clock.Since(begin)

		if current.superseded.Load() {
			c.logger.Debugw("discarding result", "graph", g.Name(), "run", current.id, "elapsed", elapsed,
				"reason", ErrSuperseded)
			return
		}
		c.logger.Debugw("finished", "graph", g.Name(), "run", current.id, "elapsed", elapsed, "error", err)
		c.runner.enqueue(func() {
			if current.superseded.Load() {
				c.logger.Debugw("discarding queued result", "graph", g.Name(), "run", current.id, "reason", ErrSuperseded)
				return
			}
			c.mu.Lock()
			if c.current == current {
				c.current = nil
			}
			c.mu.Unlock()
			if onDone != nil {
				onDone(err)
			}
		})
	})
	if !started {
		c.current = nil
		cancel()
		return ErrClosed
	}
	return nil
}

// Cancel stops the current graph without waiting for it. It is safe to call at any time.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
}

// Busy reports whether a started graph has not been delivered or cancelled yet.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *Controller) cancelLocked() {
	if c.current == nil {
		return
	}
	c.current.superseded.Store(true)
	c.current.cancel()
	c.current = nil
}
