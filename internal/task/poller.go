package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/events"
	"github.com/phrazzld/slide-explainer/internal/store"
)

// ErrPollerRunning is returned by Start when the poller is already running.
var ErrPollerRunning = errors.New("poller already running")

// PollerConfig holds configuration for the poller
type PollerConfig struct {
	// Interval is how long the poller sleeps between scans.
	Interval time.Duration

	// WorkerCount is how many jobs are processed at once. 1 finishes each
	// job before starting the next.
	WorkerCount int
}

// DefaultPollerConfig returns a PollerConfig with the default settings
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:    10 * time.Second,
		WorkerCount: 1,
	}
}

// CycleStats summarizes one scan of the registry.
type CycleStats struct {
	Pending int
	// Retrying counts the pending jobs that already failed in an earlier scan.
	Retrying int
	Skipped  int
	Failed   int
}

// Poller repeatedly scans the job registry for pending jobs and processes them.
type Poller struct {
	jobs     store.JobStore
	factory  TaskFactory
	pool     *WorkerPool
	interval time.Duration
	logger   *slog.Logger
	wake     chan struct{}

	// attempts holds the failed attempts of jobs that are still pending.
	attemptsMu sync.Mutex
	attempts   map[uuid.UUID]int

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ events.EventHandler = (*Poller)(nil)

// NewPoller creates a Poller reading pending jobs from jobs and building
// their tasks with factory.
func NewPoller(jobs store.JobStore, factory TaskFactory, config PollerConfig, logger *slog.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollerConfig().Interval
	}
	logger = logger.With("component", "poller")

	poolConfig := DefaultWorkerPoolConfig()
	if config.WorkerCount > 0 {
		poolConfig.WorkerCount = config.WorkerCount
	}

	p := &Poller{
		jobs:     jobs,
		factory:  factory,
		pool:     NewWorkerPool(poolConfig, logger),
		interval: config.Interval,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		attempts: make(map[uuid.UUID]int),
	}
	p.pool.SetErrorHandler(p.recordFailure)
	return p
}

// Run scans and processes pending jobs until ctx is cancelled, sleeping for
// the configured interval between scans. A failed scan ends only the
// current cycle.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.interval.String())

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("poll cycle failed", "error", err)
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.interval)

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-p.wake:
			p.logger.Debug("poller woken early")
		case <-timer.C:
		}
	}
}

// RunOnce performs a single scan: every pending job found is processed,
// oldest first, and RunOnce returns when all of them have finished.
func (p *Poller) RunOnce(ctx context.Context) (CycleStats, error) {
	pending, err := p.jobs.FindPending(ctx)
	if err != nil {
		return CycleStats{}, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	stats := CycleStats{Pending: len(pending), Retrying: p.retainAttempts(pending)}
	if len(pending) == 0 {
		p.logger.Debug("no pending jobs")
		return stats, nil
	}
	p.logger.Info("found pending jobs", "count", len(pending), "retrying", stats.Retrying)

	tasks := make([]Task, 0, len(pending))
	for _, job := range pending {
		t, err := p.factory.CreateTask(job)
		if err != nil {
			stats.Skipped++
			p.logger.Error("failed to create task", "job_id", job.ID, "error", err)
			continue
		}
		tasks = append(tasks, t)
	}

	stats.Failed = p.pool.Run(ctx, tasks)
	return stats, nil
}

// recordFailure counts a failed attempt for the task's job.
func (p *Poller) recordFailure(t Task, err error) {
	p.attemptsMu.Lock()
	p.attempts[t.ID()]++
	n := p.attempts[t.ID()]
	p.attemptsMu.Unlock()

	p.logger.Warn("job left pending after failed attempt",
		"job_id", t.ID(),
		"attempts", n,
		"error", err)
}

// retainAttempts forgets jobs that are no longer pending and returns how
// many of the pending ones failed before.
func (p *Poller) retainAttempts(pending []*domain.Job) int {
	p.attemptsMu.Lock()
	defer p.attemptsMu.Unlock()

	kept := make(map[uuid.UUID]int, len(p.attempts))
	for _, job := range pending {
		if n, ok := p.attempts[job.ID]; ok {
			kept[job.ID] = n
		}
	}
	p.attempts = kept
	return len(kept)
}

// Wake asks a sleeping poller to scan immediately. It never blocks.
func (p *Poller) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// HandleEvent wakes the poller when a job has been submitted.
func (p *Poller) HandleEvent(_ context.Context, event *events.Event) error {
	if event.Type != events.TypeJobSubmitted {
		return nil
	}

	var payload events.JobSubmittedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.Debug("job submitted, waking poller", "job_id", payload.JobID)
	p.Wake()
	return nil
}

// Start runs the poller in the background until Stop is called or ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		return ErrPollerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	return nil
}

// Stop cancels a started poller and waits for the current cycle to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
