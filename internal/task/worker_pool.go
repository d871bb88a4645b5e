package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many tasks run at the same time.
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig that runs one task at a time.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 1,
	}
}

// WorkerPool runs batches of tasks with a bounded number of goroutines.
// A panicking task is reported as a failure and does not affect the others.
type WorkerPool struct {
	workerCount int
	logger      *slog.Logger

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	return &WorkerPool{
		workerCount: workerCount,
		logger:      logger.With("component", "worker_pool"),
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Run executes tasks and returns once every one of them has finished.
// Tasks start in slice order. It returns the number of tasks that failed.
func (p *WorkerPool) Run(ctx context.Context, tasks []Task) int {
	if len(tasks) == 0 {
		return 0
	}

	var failed atomic.Int64
	wp := pool.New().WithMaxGoroutines(p.workerCount)
	for _, t := range tasks {
		wp.Go(func() {
			if err := p.execute(ctx, t); err != nil {
				failed.Add(1)
				p.logger.Error("task execution failed",
					"task_id", t.ID(),
					"task_type", t.Type(),
					"error", err)
				if p.errorHandler != nil {
					p.errorHandler(t, err)
				}
			}
		})
	}
	wp.Wait()

	return int(failed.Load())
}

func (p *WorkerPool) execute(ctx context.Context, t Task) (err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		err = t.Execute(ctx)
	})
	if rec := catcher.Recovered(); rec != nil {
		p.logger.Error("task panicked",
			"task_id", t.ID(),
			"panic", rec.Value,
			"stack", string(rec.Stack))
		return fmt.Errorf("task panicked: %v", rec.Value)
	}
	return err
}
