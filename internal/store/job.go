package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
)

// JobStore defines the interface for job registry persistence.
type JobStore interface {
	// Create saves a new pending job. When the job has an owner email, the
	// owner is created if needed in the same transaction.
	// Returns validation errors from the domain Job if data is invalid.
	// Returns ErrJobExists if a job with the same ID already exists.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// FindPending returns every pending job, oldest first.
	// Returns an empty slice if there are none.
	FindPending(ctx context.Context) ([]*domain.Job, error)

	// FindLatestByOwnerAndName returns the most recently created job with
	// the given owner email and source name.
	// Returns ErrJobNotFound if no job matches.
	FindLatestByOwnerAndName(ctx context.Context, ownerEmail, sourceName string) (*domain.Job, error)

	// MarkDone moves a pending job to done, recording finishedAt and result.
	// Marking a job that is already done changes nothing and returns nil.
	// Returns ErrJobNotFound if the job does not exist.
	MarkDone(ctx context.Context, id uuid.UUID, finishedAt time.Time, result domain.ExplanationResult) error

	// WithTx returns a new JobStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	WithTx(tx *sql.Tx) JobStore
}

// OwnerStore defines the interface for job owner persistence.
type OwnerStore interface {
	// GetByEmail retrieves an owner by email.
	// Returns ErrOwnerNotFound if the owner does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.Owner, error)

	// Delete removes an owner and, by cascade, all of their jobs.
	// Returns ErrOwnerNotFound if the owner does not exist.
	Delete(ctx context.Context, email string) error

	// WithTx returns a new OwnerStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) OwnerStore
}
