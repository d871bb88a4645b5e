package task_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/events"
	"github.com/phrazzld/slide-explainer/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerRunOnce(t *testing.T) {
	t.Parallel()

	t.Run("processes every pending job", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		first := f.submit(t, "first.pptx", []string{"Alpha"}, []string{"Beta"}, []string{"Gamma"})
		second := f.submit(t, "second.pptx", []string{"Gamma"})

		poller := task.NewPoller(f.jobs, f.factory, task.DefaultPollerConfig(), newTestLogger())
		stats, err := poller.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.CycleStats{Pending: 2}, stats)

		for _, id := range []*domain.Job{first, second} {
			got, err := f.jobs.GetByID(context.Background(), id.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.JobStatusDone, got.Status)
		}

		pending, err := f.jobs.FindPending(context.Background())
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("failed job stays pending and is retried", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		job := f.createJob(t, "late.pptx")

		poller := task.NewPoller(f.jobs, f.factory, task.DefaultPollerConfig(), newTestLogger())
		stats, err := poller.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.CycleStats{Pending: 1, Failed: 1}, stats)

		got, err := f.jobs.GetByID(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPending, got.Status)

		f.upload(t, job, []string{"Alpha"})

		stats, err = poller.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.CycleStats{Pending: 1, Retrying: 1}, stats)

		got, err = f.jobs.GetByID(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusDone, got.Status)

		stats, err = poller.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.CycleStats{}, stats)
	})

	t.Run("repeated failures are counted per job", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		missing := f.createJob(t, "missing.pptx")
		ready := f.createJob(t, "ready.pptx")
		f.upload(t, ready, []string{"Alpha"})

		poller := task.NewPoller(f.jobs, f.factory, task.DefaultPollerConfig(), newTestLogger())

		stats, err := poller.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.CycleStats{Pending: 2, Failed: 1}, stats)

		for range 2 {
			stats, err = poller.RunOnce(context.Background())
			require.NoError(t, err)
			assert.Equal(t, task.CycleStats{Pending: 1, Retrying: 1, Failed: 1}, stats)
		}

		got, err := f.jobs.GetByID(context.Background(), missing.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusPending, got.Status)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		boom := errors.New("database unavailable")
		f.jobs.FindPendingFn = func(context.Context) ([]*domain.Job, error) {
			return nil, boom
		}

		poller := task.NewPoller(f.jobs, f.factory, task.DefaultPollerConfig(), newTestLogger())
		_, err := poller.RunOnce(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("jobs that cannot become tasks are skipped", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		done, err := domain.NewJob("done.pptx", "")
		require.NoError(t, err)
		require.NoError(t, done.MarkDone(done.CreatedAt, domain.NewExplanationResult("", 0)))
		f.jobs.FindPendingFn = func(context.Context) ([]*domain.Job, error) {
			return []*domain.Job{done}, nil
		}

		poller := task.NewPoller(f.jobs, f.factory, task.DefaultPollerConfig(), newTestLogger())
		stats, err := poller.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, task.CycleStats{Pending: 1, Skipped: 1}, stats)
	})
}

func TestPollerRun(t *testing.T) {
	t.Parallel()

	t.Run("survives store failures until cancelled", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		var calls atomic.Int32
		recovered := make(chan struct{})
		var once sync.Once
		f.jobs.FindPendingFn = func(context.Context) ([]*domain.Job, error) {
			if calls.Add(1) == 1 {
				return nil, errors.New("database unavailable")
			}
			once.Do(func() { close(recovered) })
			return nil, nil
		}

		poller := task.NewPoller(f.jobs, f.factory,
			task.PollerConfig{Interval: 5 * time.Millisecond, WorkerCount: 1}, newTestLogger())

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- poller.Run(ctx) }()

		select {
		case <-recovered:
		case <-time.After(5 * time.Second):
			t.Fatal("poller did not scan again after a store failure")
		}

		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("poller did not stop after cancellation")
		}
	})

	t.Run("submitted event wakes a sleeping poller", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		scans := make(chan struct{}, 10)
		f.jobs.FindPendingFn = func(context.Context) ([]*domain.Job, error) {
			scans <- struct{}{}
			return nil, nil
		}

		poller := task.NewPoller(f.jobs, f.factory,
			task.PollerConfig{Interval: time.Hour, WorkerCount: 1}, newTestLogger())
		emitter := events.NewInMemoryEventEmitter(newTestLogger())
		emitter.RegisterHandler(poller)

		require.NoError(t, poller.Start(context.Background()))
		defer poller.Stop()
		assert.ErrorIs(t, poller.Start(context.Background()), task.ErrPollerRunning)

		waitForScan(t, scans)

		event, err := events.NewJobSubmitted(f.createJob(t, "deck.pptx").ID, "deck.pptx")
		require.NoError(t, err)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		waitForScan(t, scans)
	})

	t.Run("event handling", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		poller := task.NewPoller(f.jobs, f.factory, task.DefaultPollerConfig(), newTestLogger())

		other, err := events.NewEvent("job_deleted", map[string]string{"id": "x"})
		require.NoError(t, err)
		assert.NoError(t, poller.HandleEvent(context.Background(), other))

		malformed := &events.Event{Type: events.TypeJobSubmitted, Payload: []byte(`"not an object"`)}
		assert.Error(t, poller.HandleEvent(context.Background(), malformed))
	})

	t.Run("stop without start", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, scriptedGenerator())
		poller := task.NewPoller(f.jobs, f.factory, task.PollerConfig{}, newTestLogger())
		poller.Stop()
	})
}

func waitForScan(t *testing.T, scans <-chan struct{}) {
	t.Helper()

	select {
	case <-scans:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not scan")
	}
}
