// Package storetest holds the behavioral contract shared by every
// store.JobStore implementation.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns empty job and owner stores that share one backend.
type Factory func(t *testing.T) (store.JobStore, store.OwnerStore)

var baseTime = time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC)

// NewJobAt builds a pending job created at the given time.
func NewJobAt(t *testing.T, sourceName, ownerEmail string, createdAt time.Time) *domain.Job {
	t.Helper()
	job, err := domain.NewJob(sourceName, ownerEmail)
	require.NoError(t, err)
	job.CreatedAt = createdAt.UTC().Truncate(time.Microsecond)
	return job
}

func sampleResult() domain.ExplanationResult {
	r := domain.NewExplanationResult("Photosynthesis", 2)
	r.Blocks[1] = domain.BlockExplanation{SlideIndex: 1, Text: "Plants convert light."}
	r.Blocks[2] = domain.BlockExplanation{
		SlideIndex: 3,
		Text:       "ERROR - explanation generation for slide 2 failed: timeout",
		Failed:     true,
	}
	return r
}

// RunJobStoreTests runs the contract against stores produced by newStores.
// Every subtest gets its own stores.
func RunJobStoreTests(t *testing.T, newStores Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		jobs, _ := newStores(t)
		job := NewJobAt(t, "lecture.pptx", "Alice@Example.com", baseTime)

		require.NoError(t, jobs.Create(ctx, job))

		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, "lecture.pptx", got.SourceName)
		assert.Equal(t, "alice@example.com", got.OwnerEmail)
		assert.Equal(t, domain.JobStatusPending, got.Status)
		assert.True(t, job.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", job.CreatedAt, got.CreatedAt)
		assert.Nil(t, got.FinishedAt)
		assert.Nil(t, got.Result)
	})

	t.Run("create anonymous", func(t *testing.T) {
		jobs, _ := newStores(t)
		job := NewJobAt(t, "anon.pptx", "", baseTime)

		require.NoError(t, jobs.Create(ctx, job))

		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Empty(t, got.OwnerEmail)
	})

	t.Run("create rejects invalid job", func(t *testing.T) {
		jobs, _ := newStores(t)
		job := NewJobAt(t, "x.pptx", "", baseTime)
		job.SourceName = ""

		err := jobs.Create(ctx, job)
		assert.ErrorIs(t, err, domain.ErrEmptySourceName)
	})

	t.Run("create duplicate id", func(t *testing.T) {
		jobs, _ := newStores(t)
		job := NewJobAt(t, "dup.pptx", "", baseTime)
		require.NoError(t, jobs.Create(ctx, job))

		err := jobs.Create(ctx, job)
		assert.True(t, store.IsDuplicateError(err), "expected duplicate error, got %v", err)
	})

	t.Run("get unknown id", func(t *testing.T) {
		jobs, _ := newStores(t)

		got, err := jobs.GetByID(ctx, uuid.New())
		assert.Nil(t, got)
		assert.ErrorIs(t, err, store.ErrJobNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("find pending oldest first", func(t *testing.T) {
		jobs, _ := newStores(t)
		second := NewJobAt(t, "b.pptx", "", baseTime.Add(time.Minute))
		first := NewJobAt(t, "a.pptx", "", baseTime)
		third := NewJobAt(t, "c.pptx", "bob@example.com", baseTime.Add(2*time.Minute))
		finished := NewJobAt(t, "d.pptx", "", baseTime.Add(-time.Minute))

		for _, j := range []*domain.Job{second, first, third, finished} {
			require.NoError(t, jobs.Create(ctx, j))
		}
		require.NoError(t, jobs.MarkDone(ctx, finished.ID, baseTime, sampleResult()))

		pending, err := jobs.FindPending(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 3)
		assert.Equal(t, first.ID, pending[0].ID)
		assert.Equal(t, second.ID, pending[1].ID)
		assert.Equal(t, third.ID, pending[2].ID)
		for _, j := range pending {
			assert.Equal(t, domain.JobStatusPending, j.Status)
		}
	})

	t.Run("find pending empty", func(t *testing.T) {
		jobs, _ := newStores(t)

		pending, err := jobs.FindPending(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("mark done stores result", func(t *testing.T) {
		jobs, _ := newStores(t)
		job := NewJobAt(t, "deck.pptx", "", baseTime)
		require.NoError(t, jobs.Create(ctx, job))

		finishedAt := baseTime.Add(30 * time.Second)
		require.NoError(t, jobs.MarkDone(ctx, job.ID, finishedAt, sampleResult()))

		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusDone, got.Status)
		require.NotNil(t, got.FinishedAt)
		assert.True(t, finishedAt.Equal(*got.FinishedAt))
		require.NotNil(t, got.Result)
		assert.Equal(t, sampleResult(), *got.Result)
		assert.NoError(t, got.Validate())
	})

	t.Run("mark done twice keeps first", func(t *testing.T) {
		jobs, _ := newStores(t)
		job := NewJobAt(t, "deck.pptx", "", baseTime)
		require.NoError(t, jobs.Create(ctx, job))

		first := baseTime.Add(time.Second)
		require.NoError(t, jobs.MarkDone(ctx, job.ID, first, sampleResult()))

		other := domain.NewExplanationResult("Other", 0)
		require.NoError(t, jobs.MarkDone(ctx, job.ID, baseTime.Add(time.Hour), other))

		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusDone, got.Status)
		assert.True(t, first.Equal(*got.FinishedAt))
		assert.Equal(t, "Photosynthesis", got.Result.Topic)
	})

	t.Run("concurrent mark done keeps one result", func(t *testing.T) {
		jobs, _ := newStores(t)
		job := NewJobAt(t, "race.pptx", "", baseTime)
		require.NoError(t, jobs.Create(ctx, job))

		const writers = 16
		finished := make([]time.Time, writers)
		errs := make([]error, writers)
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := range writers {
			finished[i] = baseTime.Add(time.Duration(i+1) * time.Second)
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				result := domain.NewExplanationResult(fmt.Sprintf("topic-%d", i), 0)
				errs[i] = jobs.MarkDone(ctx, job.ID, finished[i], result)
			}()
		}
		close(start)
		wg.Wait()

		for i, err := range errs {
			assert.NoError(t, err, "writer %d", i)
		}

		got, err := jobs.GetByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusDone, got.Status)
		require.NotNil(t, got.FinishedAt)
		require.NotNil(t, got.Result)

		winner := -1
		for i, f := range finished {
			if f.Equal(*got.FinishedAt) {
				winner = i
			}
		}
		require.NotEqual(t, -1, winner, "finished_at %v was not written by any caller", got.FinishedAt)
		assert.Equal(t, fmt.Sprintf("topic-%d", winner), got.Result.Topic)
	})

	t.Run("mark done unknown id", func(t *testing.T) {
		jobs, _ := newStores(t)

		err := jobs.MarkDone(ctx, uuid.New(), baseTime, sampleResult())
		assert.ErrorIs(t, err, store.ErrJobNotFound)
	})

	t.Run("latest by owner and name", func(t *testing.T) {
		jobs, _ := newStores(t)
		older := NewJobAt(t, "report.pptx", "carol@example.com", baseTime)
		newer := NewJobAt(t, "report.pptx", "carol@example.com", baseTime.Add(time.Hour))
		otherName := NewJobAt(t, "other.pptx", "carol@example.com", baseTime.Add(2*time.Hour))
		otherOwner := NewJobAt(t, "report.pptx", "dave@example.com", baseTime.Add(3*time.Hour))

		for _, j := range []*domain.Job{newer, older, otherName, otherOwner} {
			require.NoError(t, jobs.Create(ctx, j))
		}

		got, err := jobs.FindLatestByOwnerAndName(ctx, "Carol@Example.com", "report.pptx")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, got.ID)

		_, err = jobs.FindLatestByOwnerAndName(ctx, "carol@example.com", "missing.pptx")
		assert.ErrorIs(t, err, store.ErrJobNotFound)

		_, err = jobs.FindLatestByOwnerAndName(ctx, "nobody@example.com", "report.pptx")
		assert.ErrorIs(t, err, store.ErrJobNotFound)
	})

	t.Run("latest anonymous", func(t *testing.T) {
		jobs, _ := newStores(t)
		anon := NewJobAt(t, "slides.pptx", "", baseTime)
		owned := NewJobAt(t, "slides.pptx", "erin@example.com", baseTime.Add(time.Hour))
		require.NoError(t, jobs.Create(ctx, anon))
		require.NoError(t, jobs.Create(ctx, owned))

		got, err := jobs.FindLatestByOwnerAndName(ctx, "", "slides.pptx")
		require.NoError(t, err)
		assert.Equal(t, anon.ID, got.ID)
	})

	t.Run("owner delete cascades", func(t *testing.T) {
		jobs, owners := newStores(t)
		a := NewJobAt(t, "a.pptx", "frank@example.com", baseTime)
		b := NewJobAt(t, "b.pptx", "frank@example.com", baseTime.Add(time.Minute))
		keep := NewJobAt(t, "c.pptx", "grace@example.com", baseTime)
		for _, j := range []*domain.Job{a, b, keep} {
			require.NoError(t, jobs.Create(ctx, j))
		}

		owner, err := owners.GetByEmail(ctx, "frank@example.com")
		require.NoError(t, err)
		assert.Equal(t, "frank@example.com", owner.Email)

		require.NoError(t, owners.Delete(ctx, "FRANK@example.com"))

		_, err = jobs.GetByID(ctx, a.ID)
		assert.ErrorIs(t, err, store.ErrJobNotFound)
		_, err = jobs.GetByID(ctx, b.ID)
		assert.ErrorIs(t, err, store.ErrJobNotFound)
		_, err = jobs.GetByID(ctx, keep.ID)
		assert.NoError(t, err)

		_, err = owners.GetByEmail(ctx, "frank@example.com")
		assert.ErrorIs(t, err, store.ErrOwnerNotFound)
		assert.ErrorIs(t, owners.Delete(ctx, "frank@example.com"), store.ErrOwnerNotFound)
	})

	t.Run("owner reused across jobs", func(t *testing.T) {
		jobs, owners := newStores(t)
		require.NoError(t, jobs.Create(ctx, NewJobAt(t, "a.pptx", "heidi@example.com", baseTime)))
		first, err := owners.GetByEmail(ctx, "heidi@example.com")
		require.NoError(t, err)

		require.NoError(t, jobs.Create(ctx, NewJobAt(t, "b.pptx", "heidi@example.com", baseTime)))
		second, err := owners.GetByEmail(ctx, "heidi@example.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})
}
