package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/events"
	"github.com/phrazzld/slide-explainer/internal/mocks"
	"github.com/phrazzld/slide-explainer/internal/platform/filestore"
	"github.com/phrazzld/slide-explainer/internal/service"
	"github.com/phrazzld/slide-explainer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	jobs      *mocks.MockJobStore
	documents *filestore.Store
	received  *[]*events.Event
	svc       service.JobService
}

func newServiceFixture(t *testing.T, maxBytes int64) *serviceFixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	documents, err := filestore.New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	var received []*events.Event
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.HandlerFunc(func(_ context.Context, e *events.Event) error {
		received = append(received, e)
		return nil
	}))

	jobs := mocks.NewMockJobStore()
	svc, err := service.NewJobService(jobs, documents, emitter,
		service.JobServiceConfig{MaxUploadBytes: maxBytes}, logger)
	require.NoError(t, err)

	return &serviceFixture{jobs: jobs, documents: documents, received: &received, svc: svc}
}

func TestNewJobServiceValidation(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	documents, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	emitter := events.NewInMemoryEventEmitter(logger)

	_, err = service.NewJobService(nil, documents, emitter, service.JobServiceConfig{}, logger)
	assert.Error(t, err)
	_, err = service.NewJobService(mocks.NewMockJobStore(), nil, emitter, service.JobServiceConfig{}, logger)
	assert.Error(t, err)
	_, err = service.NewJobService(mocks.NewMockJobStore(), documents, nil, service.JobServiceConfig{}, logger)
	assert.Error(t, err)
}

func TestJobServiceSubmit(t *testing.T) {
	t.Parallel()

	t.Run("stores document and creates pending job", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 0)
		job, err := f.svc.Submit(context.Background(), service.SubmitRequest{
			SourceName: "talks/Deck.PPTX",
			OwnerEmail: "Ada@Example.com",
			Content:    strings.NewReader("pptx bytes"),
		})
		require.NoError(t, err)

		assert.Equal(t, "Deck.PPTX", job.SourceName)
		assert.Equal(t, "ada@example.com", job.OwnerEmail)
		assert.Equal(t, domain.JobStatusPending, job.Status)

		path, err := f.documents.Path(job.ID.String() + ".pptx")
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "pptx bytes", string(data))

		stored, err := f.jobs.GetByID(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, stored.ID)

		require.Len(t, *f.received, 1)
		var payload events.JobSubmittedPayload
		require.NoError(t, (*f.received)[0].UnmarshalPayload(&payload))
		assert.Equal(t, job.ID, payload.JobID)
	})

	t.Run("rejects other document types", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 0)
		_, err := f.svc.Submit(context.Background(), service.SubmitRequest{
			SourceName: "notes.pdf",
			Content:    strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, service.ErrUnsupportedDocument)
		assert.Empty(t, f.jobs.Jobs())
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 0)
		_, err := f.svc.Submit(context.Background(), service.SubmitRequest{
			SourceName: "deck.pptx",
			OwnerEmail: "not-an-email",
			Content:    strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidSubmission)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 0)
		_, err := f.svc.Submit(context.Background(), service.SubmitRequest{
			SourceName: "  ",
			Content:    strings.NewReader("x"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidSubmission)
		assert.ErrorIs(t, err, domain.ErrEmptySourceName)
	})

	t.Run("rejects oversized documents", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 4)
		_, err := f.svc.Submit(context.Background(), service.SubmitRequest{
			SourceName: "deck.pptx",
			Content:    bytes.NewReader(make([]byte, 5)),
		})
		assert.ErrorIs(t, err, service.ErrDocumentTooLarge)
		assert.Empty(t, f.jobs.Jobs())
	})

	t.Run("removes document when job cannot be stored", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 0)
		boom := errors.New("database unavailable")
		var created *domain.Job
		f.jobs.CreateFn = func(_ context.Context, job *domain.Job) error {
			created = job
			return boom
		}

		_, err := f.svc.Submit(context.Background(), service.SubmitRequest{
			SourceName: "deck.pptx",
			Content:    strings.NewReader("x"),
		})
		require.ErrorIs(t, err, boom)
		var svcErr *service.JobServiceError
		assert.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "submit", svcErr.Operation)

		require.NotNil(t, created)
		path, err := f.documents.Path(created.DocumentKey())
		require.NoError(t, err)
		assert.NoFileExists(t, path)
		assert.Empty(t, *f.received)
	})
}

func TestJobServiceStatus(t *testing.T) {
	t.Parallel()

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 0)
		_, err := f.svc.Status(context.Background(), uuid.New())
		assert.ErrorIs(t, err, service.ErrJobNotFound)
	})

	t.Run("done job carries result", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 0)
		job, err := f.svc.Submit(context.Background(), service.SubmitRequest{
			SourceName: "deck.pptx",
			Content:    strings.NewReader("x"),
		})
		require.NoError(t, err)

		result := domain.NewExplanationResult("Biology", 1)
		result.Blocks[1] = domain.BlockExplanation{SlideIndex: 1, Text: "cells"}
		require.NoError(t, f.jobs.MarkDone(context.Background(), job.ID, time.Now(), result))

		got, err := f.svc.Status(context.Background(), job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusDone, got.Status)
		require.NotNil(t, got.Result)
		assert.Equal(t, "cells", got.Result.Blocks[1].Text)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		t.Parallel()

		f := newServiceFixture(t, 0)
		boom := errors.New("database unavailable")
		f.jobs.GetByIDFn = func(context.Context, uuid.UUID) (*domain.Job, error) {
			return nil, boom
		}

		_, err := f.svc.Status(context.Background(), uuid.New())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, service.ErrJobNotFound)
	})
}

func TestJobServiceLatestStatus(t *testing.T) {
	t.Parallel()

	f := newServiceFixture(t, 0)
	ctx := context.Background()

	older, err := domain.NewJob("deck.pptx", "ada@example.com")
	require.NoError(t, err)
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, f.jobs.Create(ctx, older))

	newer, err := domain.NewJob("deck.pptx", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.jobs.Create(ctx, newer))

	got, err := f.svc.LatestStatus(ctx, "ADA@example.com", "deck.pptx")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	_, err = f.svc.LatestStatus(ctx, "ada@example.com", "other.pptx")
	assert.ErrorIs(t, err, service.ErrJobNotFound)

	_, err = f.svc.LatestStatus(ctx, "ada@example.com", "")
	assert.ErrorIs(t, err, service.ErrInvalidSubmission)
	assert.ErrorIs(t, err, domain.ErrEmptySourceName)
}

func TestNewJobServiceError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, service.NewJobServiceError("op", "msg", nil))
	assert.Equal(t, service.ErrJobNotFound, service.NewJobServiceError("op", "msg", store.ErrJobNotFound))
	assert.ErrorIs(t, service.NewJobServiceError("op", "msg", filestore.ErrTooLarge), service.ErrDocumentTooLarge)
	assert.ErrorIs(t, service.NewJobServiceError("op", "msg", domain.ErrInvalidEmail), service.ErrInvalidSubmission)

	// The domain cause stays in the chain next to the service sentinel.
	assert.ErrorIs(t, service.NewJobServiceError("op", "msg", domain.ErrInvalidEmail), domain.ErrInvalidEmail)
	assert.ErrorIs(t, service.NewJobServiceError("op", "msg", domain.ErrEmptySourceName), domain.ErrEmptySourceName)
	assert.ErrorIs(t, service.NewJobServiceError("op", "msg", filestore.ErrTooLarge), filestore.ErrTooLarge)

	err := service.NewJobServiceError("status", "failed", errors.New("boom"))
	assert.EqualError(t, err, "job service status failed: failed: boom")
}
