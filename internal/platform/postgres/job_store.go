package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/platform/logger"
	"github.com/phrazzld/slide-explainer/internal/store"
)

const jobColumns = `
	j.id, j.source_name, COALESCE(o.email, ''), j.status, j.created_at, j.finished_at, j.result
	FROM jobs j
	LEFT JOIN owners o ON o.id = j.owner_id`

// PostgresJobStore implements the store.JobStore interface
// using a PostgreSQL database as the storage backend.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the JobStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements store.JobStore interface
var _ store.JobStore = (*PostgresJobStore)(nil)

// WithTx implements store.JobStore.WithTx
func (s *PostgresJobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &PostgresJobStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.JobStore.Create
// When the job has an owner, the owner row is upserted and the job inserted
// in one transaction. If the store is already bound to a transaction, that
// transaction is used.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}
	if job.IsDone() {
		return fmt.Errorf("%w: new jobs must be pending", store.ErrInvalidEntity)
	}

	var err error
	if db, ok := s.db.(*sql.DB); ok {
		err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return insertJob(ctx, tx, job)
		})
	} else {
		err = insertJob(ctx, s.db, job)
	}
	if err != nil {
		if IsUniqueViolation(err) {
			return MapUniqueViolation(err, "job", "", store.ErrJobExists)
		}
		log.Error("failed to create job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return store.NewStoreError("job", "create", "insert failed", MapError(err))
	}

	log.Info("job created successfully",
		slog.String("job_id", job.ID.String()),
		slog.String("source_name", job.SourceName))
	return nil
}

func insertJob(ctx context.Context, db store.DBTX, job *domain.Job) error {
	// NULL for anonymous jobs
	var ownerID any
	if job.OwnerEmail != "" {
		id, err := upsertOwner(ctx, db, job.OwnerEmail)
		if err != nil {
			return err
		}
		ownerID = id
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO jobs (id, source_name, owner_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, job.ID, job.SourceName, ownerID, string(job.Status), job.CreatedAt)
	return err
}

func upsertOwner(ctx context.Context, db store.DBTX, email string) (uuid.UUID, error) {
	owner, err := domain.NewOwner(email)
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err = db.QueryRowContext(ctx, `
		INSERT INTO owners (id, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`, owner.ID, owner.Email, owner.CreatedAt).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert owner: %w", err)
	}
	return id, nil
}

// GetByID implements store.JobStore.GetByID
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("retrieving job by ID", slog.String("job_id", id.String()))

	job, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` WHERE j.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("job not found", slog.String("job_id", id.String()))
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to get job by ID",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return nil, store.NewStoreError("job", "get", "query failed", MapError(err))
	}
	return job, nil
}

// FindPending implements store.JobStore.FindPending
func (s *PostgresJobStore) FindPending(ctx context.Context) ([]*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+`
		WHERE j.status = 'pending'
		ORDER BY j.created_at ASC, j.id ASC`)
	if err != nil {
		log.Error("failed to query pending jobs", slog.String("error", err.Error()))
		return nil, store.NewStoreError("job", "find_pending", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, store.NewStoreError("job", "find_pending", "scan failed", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("job", "find_pending", "row iteration failed", MapError(err))
	}

	log.Debug("found pending jobs", slog.Int("count", len(jobs)))
	return jobs, nil
}

// FindLatestByOwnerAndName implements store.JobStore.FindLatestByOwnerAndName
// An empty ownerEmail matches anonymous jobs.
func (s *PostgresJobStore) FindLatestByOwnerAndName(ctx context.Context, ownerEmail, sourceName string) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	email := domain.NormalizeEmail(ownerEmail)

	job, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+`
		WHERE COALESCE(o.email, '') = $1 AND j.source_name = $2
		ORDER BY j.created_at DESC, j.id DESC
		LIMIT 1`, email, sourceName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to find latest job",
			slog.String("error", err.Error()),
			slog.String("source_name", sourceName))
		return nil, store.NewStoreError("job", "find_latest", "query failed", MapError(err))
	}
	return job, nil
}

// MarkDone implements store.JobStore.MarkDone
// The update only matches pending rows, so the first recorded finish wins.
func (s *PostgresJobStore) MarkDone(
	ctx context.Context,
	id uuid.UUID,
	finishedAt time.Time,
	result domain.ExplanationResult,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'done', finished_at = $2, result = $3
		WHERE id = $1 AND status = 'pending'
	`, id, finishedAt.UTC().Truncate(time.Microsecond), string(payload))
	if err != nil {
		log.Error("failed to mark job done",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return store.NewStoreError("job", "mark_done", "update failed", MapError(err))
	}

	if err := CheckRowsAffected(res, "job"); err == nil {
		log.Info("job marked done",
			slog.String("job_id", id.String()),
			slog.Int("blocks", len(result.Blocks)))
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return store.NewStoreError("job", "mark_done", "existence check failed", MapError(err))
	}
	if !exists {
		return store.ErrJobNotFound
	}

	log.Debug("job already done, keeping first result", slog.String("job_id", id.String()))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job        domain.Job
		status     string
		finishedAt sql.NullTime
		resultJSON []byte
	)

	if err := row.Scan(
		&job.ID,
		&job.SourceName,
		&job.OwnerEmail,
		&status,
		&job.CreatedAt,
		&finishedAt,
		&resultJSON,
	); err != nil {
		return nil, err
	}

	parsed, err := domain.ParseJobStatus(status)
	if err != nil {
		return nil, err
	}
	job.Status = parsed
	job.CreatedAt = job.CreatedAt.UTC()

	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		job.FinishedAt = &t
	}
	if len(resultJSON) > 0 {
		var result domain.ExplanationResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		job.Result = &result
	}

	return &job, nil
}
