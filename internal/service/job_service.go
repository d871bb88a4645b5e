package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/events"
	"github.com/phrazzld/slide-explainer/internal/store"
)

// SupportedExtension is the only document type accepted for explanation.
const SupportedExtension = ".pptx"

// DocumentStore keeps uploaded documents. filestore.Store satisfies it.
type DocumentStore interface {
	// Save stores r under key, failing when it holds more than maxBytes bytes.
	Save(ctx context.Context, key string, r io.Reader, maxBytes int64) (int64, error)

	// Remove deletes the document stored under key.
	Remove(key string) error
}

// SubmitRequest describes one uploaded document.
type SubmitRequest struct {
	// SourceName is the client-side file name; only its base name is kept.
	SourceName string
	// OwnerEmail is optional.
	OwnerEmail string
	Content    io.Reader
}

// JobService provides job intake and status queries
type JobService interface {
	// Submit stores the document and registers a pending job for it.
	Submit(ctx context.Context, req SubmitRequest) (*domain.Job, error)

	// Status returns the job with the given ID.
	Status(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// LatestStatus returns the most recently created job for an owner and
	// file name. An empty email selects anonymous jobs.
	LatestStatus(ctx context.Context, ownerEmail, sourceName string) (*domain.Job, error)
}

// JobServiceConfig holds intake limits.
type JobServiceConfig struct {
	// MaxUploadBytes caps the size of a document. Zero means no limit.
	MaxUploadBytes int64
}

type jobServiceImpl struct {
	jobs         store.JobStore
	documents    DocumentStore
	eventEmitter events.EventEmitter
	config       JobServiceConfig
	logger       *slog.Logger
}

// NewJobService creates a new JobService
// It returns an error if any of the required dependencies are nil.
func NewJobService(
	jobs store.JobStore,
	documents DocumentStore,
	eventEmitter events.EventEmitter,
	config JobServiceConfig,
	logger *slog.Logger,
) (JobService, error) {
	if jobs == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "jobs cannot be nil"}
	}
	if documents == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "documents cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &JobServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &jobServiceImpl{
		jobs:         jobs,
		documents:    documents,
		eventEmitter: eventEmitter,
		config:       config,
		logger:       logger.With("component", "job_service"),
	}, nil
}

// Submit creates a pending job, stores its document under the job's
// document key and announces the job. The document is written before the
// job row so the poller never sees a job without its document; if the job
// cannot be stored the document is removed again.
func (s *jobServiceImpl) Submit(ctx context.Context, req SubmitRequest) (*domain.Job, error) {
	job, err := domain.NewJob(req.SourceName, req.OwnerEmail)
	if err != nil {
		return nil, NewJobServiceError("submit", "failed to create job object", err)
	}

	ext := strings.ToLower(filepath.Ext(job.SourceName))
	if ext != SupportedExtension {
		return nil, fmt.Errorf("%w: %q, expected %s", ErrUnsupportedDocument, ext, SupportedExtension)
	}

	key := job.DocumentKey()
	size, err := s.documents.Save(ctx, key, req.Content, s.config.MaxUploadBytes)
	if err != nil {
		s.logger.Error("failed to store document", "error", err, "job_id", job.ID)
		return nil, NewJobServiceError("submit", "failed to store document", err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		s.logger.Error("failed to create job", "error", err, "job_id", job.ID)
		if rmErr := s.documents.Remove(key); rmErr != nil {
			s.logger.Error("failed to remove orphaned document", "error", rmErr, "job_id", job.ID)
		}
		return nil, NewJobServiceError("submit", "failed to save job to database", err)
	}

	s.logger.Info("job submitted",
		"job_id", job.ID,
		"source_name", job.SourceName,
		"size_bytes", size,
		"has_owner", job.OwnerEmail != "")

	// The registry is the source of truth; the event only shortens the wait.
	event, err := events.NewJobSubmitted(job.ID, job.SourceName)
	if err != nil {
		s.logger.Error("failed to create job submitted event", "error", err, "job_id", job.ID)
		return job, nil
	}
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Warn("failed to emit job submitted event", "error", err, "job_id", job.ID)
	}

	return job, nil
}

// Status implements JobService
func (s *jobServiceImpl) Status(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, NewJobServiceError("status", "failed to get job", err)
	}
	return job, nil
}

// LatestStatus implements JobService
func (s *jobServiceImpl) LatestStatus(ctx context.Context, ownerEmail, sourceName string) (*domain.Job, error) {
	name := strings.TrimSpace(sourceName)
	if name == "" {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSubmission, domain.ErrEmptySourceName)
	}

	job, err := s.jobs.FindLatestByOwnerAndName(ctx, ownerEmail, filepath.Base(filepath.ToSlash(name)))
	if err != nil {
		return nil, NewJobServiceError("latest_status", "failed to find latest job", err)
	}
	return job, nil
}
