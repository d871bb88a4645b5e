package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
)

// Task type constants
const (
	// TaskTypeExplanation processes one pending job end to end.
	TaskTypeExplanation = "explanation"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the identifier of the job the task works on
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskFactory builds the task that processes a pending job.
type TaskFactory interface {
	CreateTask(job *domain.Job) (Task, error)
}
