package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/document"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/store"
)

// Common errors
var (
	ErrNilJob       = errors.New("job cannot be nil")
	ErrJobNotActive = errors.New("job is not pending")
	ErrNilLoader    = errors.New("document loader cannot be nil")
	ErrNilPipeline  = errors.New("pipeline cannot be nil")
	ErrNilArtifacts = errors.New("artifact writer cannot be nil")
	ErrNilJobStore  = errors.New("job store cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
)

// DocumentLoader opens a stored document. document.Source satisfies it.
type DocumentLoader interface {
	Load(ctx context.Context, key string) (*document.Presentation, error)
}

// ArtifactWriter stores result artifacts. filestore.Store satisfies it.
type ArtifactWriter interface {
	WriteJSON(key string, v any) error
}

// Artifact is the JSON document written for every finished job.
type Artifact struct {
	JobID        uuid.UUID      `json:"job_id"`
	SourceName   string         `json:"source_name"`
	Topic        string         `json:"topic"`
	Explanations map[int]string `json:"explanations"`
	SlideIndexes map[int]int    `json:"slide_indexes"`
}

// NewArtifact builds the artifact for a job's result.
func NewArtifact(job *domain.Job, result domain.ExplanationResult) Artifact {
	indexes := make(map[int]int, len(result.Blocks))
	for pos, b := range result.Blocks {
		indexes[pos] = b.SlideIndex
	}
	return Artifact{
		JobID:        job.ID,
		SourceName:   job.SourceName,
		Topic:        result.Topic,
		Explanations: result.Explanations(),
		SlideIndexes: indexes,
	}
}

// ExplanationTask processes one pending job: it loads the uploaded document,
// runs the pipeline, writes the result artifact and marks the job done.
type ExplanationTask struct {
	job       *domain.Job
	loader    DocumentLoader
	pipeline  *Pipeline
	artifacts ArtifactWriter
	jobs      store.JobStore
	now       func() time.Time
	logger    *slog.Logger
}

// NewExplanationTask creates the task for job.
func NewExplanationTask(
	job *domain.Job,
	loader DocumentLoader,
	pipeline *Pipeline,
	artifacts ArtifactWriter,
	jobs store.JobStore,
	logger *slog.Logger,
) (*ExplanationTask, error) {
	switch {
	case job == nil:
		return nil, ErrNilJob
	case loader == nil:
		return nil, ErrNilLoader
	case pipeline == nil:
		return nil, ErrNilPipeline
	case artifacts == nil:
		return nil, ErrNilArtifacts
	case jobs == nil:
		return nil, ErrNilJobStore
	case logger == nil:
		return nil, ErrNilLogger
	}
	if job.IsDone() {
		return nil, fmt.Errorf("%w: %s", ErrJobNotActive, job.ID)
	}

	return &ExplanationTask{
		job:       job,
		loader:    loader,
		pipeline:  pipeline,
		artifacts: artifacts,
		jobs:      jobs,
		now:       time.Now,
		logger: logger.With(
			"task_type", TaskTypeExplanation,
			"job_id", job.ID,
			"source_name", job.SourceName,
		),
	}, nil
}

// ID returns the job ID.
func (t *ExplanationTask) ID() uuid.UUID {
	return t.job.ID
}

// Type returns the task type identifier
func (t *ExplanationTask) Type() string {
	return TaskTypeExplanation
}

// Execute runs the whole job. Any returned error leaves the job pending.
func (t *ExplanationTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	started := t.now()
	t.logger.Info("starting explanation task")

	pres, err := t.loader.Load(ctx, t.job.DocumentKey())
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	t.logger.Debug("document loaded", "slide_count", len(pres.Slides))

	result, err := t.pipeline.Run(ctx, pres)
	if err != nil {
		return err
	}

	if err := t.artifacts.WriteJSON(t.job.ResultKey(), NewArtifact(t.job, result)); err != nil {
		return fmt.Errorf("failed to write result artifact: %w", err)
	}

	if err := t.jobs.MarkDone(ctx, t.job.ID, t.now(), result); err != nil {
		return fmt.Errorf("failed to mark job done: %w", err)
	}

	t.logger.Info("explanation task completed",
		"block_count", len(result.Blocks),
		"failed_blocks", result.FailedCount(),
		"duration_ms", t.now().Sub(started).Milliseconds())
	return nil
}

// ExplanationTaskFactory creates ExplanationTask instances sharing one set
// of dependencies.
type ExplanationTaskFactory struct {
	loader    DocumentLoader
	pipeline  *Pipeline
	artifacts ArtifactWriter
	jobs      store.JobStore
	logger    *slog.Logger
}

var _ TaskFactory = (*ExplanationTaskFactory)(nil)

// NewExplanationTaskFactory creates a new factory for ExplanationTasks
func NewExplanationTaskFactory(
	loader DocumentLoader,
	pipeline *Pipeline,
	artifacts ArtifactWriter,
	jobs store.JobStore,
	logger *slog.Logger,
) *ExplanationTaskFactory {
	return &ExplanationTaskFactory{
		loader:    loader,
		pipeline:  pipeline,
		artifacts: artifacts,
		jobs:      jobs,
		logger:    logger,
	}
}

// CreateTask creates the ExplanationTask for job.
func (f *ExplanationTaskFactory) CreateTask(job *domain.Job) (Task, error) {
	task, err := NewExplanationTask(job, f.loader, f.pipeline, f.artifacts, f.jobs, f.logger)
	if err != nil {
		return nil, err
	}
	return task, nil
}
