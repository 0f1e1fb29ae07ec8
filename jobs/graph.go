package jobs

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"go.viam.com/autosteer/utils"
)

// Dependency is a task another task waits on before it starts.
type Dependency interface {
	wait(ctx context.Context) error
}

// Future holds the result of one task of a Graph.
type Future[T any] struct {
	name  string
	done  chan struct{}
	value T
	err   error
}

func (f *Future[T]) resolve(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

func (f *Future[T]) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return f.err
	}
}

// Wait blocks until the task finished or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	if err := f.wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return f.value, nil
}

// Value returns the task's result. It must only be called once the task is known to have
// succeeded: from a dependent task, or from the completion callback of a successful run.
func (f *Future[T]) Value() T {
	return f.value
}

// Done reports whether the task has finished.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

type task struct {
	name string
	deps []Dependency
	run  func(ctx context.Context) error
}

// Graph is a set of tasks with dependencies between them. A Graph runs once.
type Graph struct {
	name    string
	tasks   []task
	started atomic.Bool
	post    func(func())
}

// NewGraph returns an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{name: name}
}

// Name returns the name given to NewGraph.
func (g *Graph) Name() string {
	return g.name
}

// Go adds a task computing fn once all deps succeeded. Dependents read the result through the
// returned Future. Panics in fn fail the task.
func Go[T any](g *Graph, name string, fn func(ctx context.Context) (T, error), deps ...Dependency) *Future[T] {
	f := &Future[T]{name: name, done: make(chan struct{})}
	g.tasks = append(g.tasks, task{
		name: name,
		deps: deps,
		run: func(ctx context.Context) error {
			var value T
			err := utils.CallRecovered(ctx, func(ctx context.Context) error {
				var err error
				value, err = fn(ctx)
				return err
			})
			f.resolve(value, err)
			return err
		},
	})
	return f
}

// Post queues f for delivery on the goroutine draining the runner. It is meant for progress
// reports from running tasks. Posts of a superseded or synchronous run are dropped.
func (g *Graph) Post(f func()) {
	if g.post != nil {
		g.post(f)
	}
}

// execute runs every task, each holding one slot of sem while it computes. The first failure
// cancels the rest.
func (g *Graph) execute(ctx context.Context, sem *semaphore.Weighted, post func(func())) error {
	if !g.started.CompareAndSwap(false, true) {
		return errors.Errorf("graph %q already ran", g.name)
	}
	g.post = post

	eg, gctx := errgroup.WithContext(ctx)
	for _, t := range g.tasks {
		t := t
		eg.Go(func() error {
			for _, dep := range t.deps {
				if err := dep.wait(gctx); err != nil {
					return err
				}
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			return errors.Wrapf(t.run(gctx), "%s/%s", g.name, t.name)
		})
	}
	return eg.Wait()
}
