// Package async runs named loading tasks with bounded concurrency.
package async

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Task is a named unit of work. Execute receives a context that is cancelled
// as soon as any sibling task fails.
type Task struct {
	Name    string
	Execute func(ctx context.Context) (any, error)
}

// Result holds what a task produced.
type Result struct {
	Name string
	Data any
	Err  error
}

// Pool limits how many tasks run at once.
type Pool struct {
	workerCount int
}

// NewPool returns a pool running at most workerCount tasks concurrently.
// Values below one mean one.
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Execute runs every task and returns the results keyed by task name. The
// first failure cancels the remaining tasks and is returned wrapped with the
// task name; results of tasks that finished are still in the map.
func (p *Pool) Execute(ctx context.Context, tasks []Task) (map[string]Result, error) {
	var mu sync.Mutex
	results := make(map[string]Result, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount)

	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := task.Execute(gctx)

			mu.Lock()
			results[task.Name] = Result{Name: task.Name, Data: data, Err: err}
			mu.Unlock()

			if err != nil {
				return fmt.Errorf("%s: %w", task.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// Value returns the typed data of a named result, or the zero value when the
// task is missing, failed or produced something else.
func Value[T any](results map[string]Result, name string) T {
	var zero T
	result, ok := results[name]
	if !ok || result.Err != nil || result.Data == nil {
		return zero
	}
	v, ok := result.Data.(T)
	if !ok {
		return zero
	}
	return v
}
