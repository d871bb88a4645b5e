package sqlite

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

// JobStore implements store.JobStore on SQLite.
type JobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewJobStore creates a JobStore using db, which may be a *sql.DB or a *sql.Tx.
// If logger is nil, a default logger will be used.
func NewJobStore(db store.DBTX, logger *slog.Logger) *JobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &JobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

var _ store.JobStore = (*JobStore)(nil)

// WithTx implements store.JobStore.WithTx
func (s *JobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &JobStore{db: tx, logger: s.logger}
}

// Create implements store.JobStore.Create
func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
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
			return fmt.Errorf("%w: %v", store.ErrJobExists, err)
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
	var ownerID any
	if job.OwnerEmail != "" {
		id, err := upsertOwner(ctx, db, job.OwnerEmail)
		if err != nil {
			return err
		}
		ownerID = id.String()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO jobs (id, source_name, owner_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, job.ID.String(), job.SourceName, ownerID, string(job.Status), job.CreatedAt.UnixNano())
	return err
}

func upsertOwner(ctx context.Context, db store.DBTX, email string) (uuid.UUID, error) {
	owner, err := domain.NewOwner(email)
	if err != nil {
		return uuid.Nil, err
	}

	var id string
	err = db.QueryRowContext(ctx, `
		INSERT INTO owners (id, email, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET email = excluded.email
		RETURNING id
	`, owner.ID.String(), owner.Email, owner.CreatedAt.UnixNano()).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert owner: %w", err)
	}
	return uuid.Parse(id)
}

// GetByID implements store.JobStore.GetByID
func (s *JobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	job, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` WHERE j.id = ?`, id.String()))
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
func (s *JobStore) FindPending(ctx context.Context) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+`
		WHERE j.status = 'pending'
		ORDER BY j.created_at ASC, j.id ASC`)
	if err != nil {
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
	return jobs, nil
}

// FindLatestByOwnerAndName implements store.JobStore.FindLatestByOwnerAndName
// An empty ownerEmail matches anonymous jobs.
func (s *JobStore) FindLatestByOwnerAndName(ctx context.Context, ownerEmail, sourceName string) (*domain.Job, error) {
	job, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+`
		WHERE COALESCE(o.email, '') = ? AND j.source_name = ?
		ORDER BY j.created_at DESC, j.id DESC
		LIMIT 1`, domain.NormalizeEmail(ownerEmail), sourceName))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, store.NewStoreError("job", "find_latest", "query failed", MapError(err))
	}
	return job, nil
}

// MarkDone implements store.JobStore.MarkDone
func (s *JobStore) MarkDone(ctx context.Context, id uuid.UUID, finishedAt time.Time, result domain.ExplanationResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'done', finished_at = ?, result = ?
		WHERE id = ? AND status = 'pending'
	`, finishedAt.UTC().Truncate(time.Microsecond).UnixNano(), string(payload), id.String())
	if err != nil {
		log.Error("failed to mark job done",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return store.NewStoreError("job", "mark_done", "update failed", MapError(err))
	}

	err = checkRowsAffected(res)
	if err == nil {
		log.Info("job marked done",
			slog.String("job_id", id.String()),
			slog.Int("blocks", len(result.Blocks)))
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = ?)`, id.String()).Scan(&exists); err != nil {
		return store.NewStoreError("job", "mark_done", "existence check failed", MapError(err))
	}
	if exists == 0 {
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
		id         string
		status     string
		createdAt  int64
		finishedAt sql.NullInt64
		resultJSON sql.NullString
	)

	if err := row.Scan(&id, &job.SourceName, &job.OwnerEmail, &status, &createdAt, &finishedAt, &resultJSON); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid job id %q: %w", id, err)
	}
	job.ID = parsedID

	job.Status, err = domain.ParseJobStatus(status)
	if err != nil {
		return nil, err
	}
	job.CreatedAt = time.Unix(0, createdAt).UTC()

	if finishedAt.Valid {
		t := time.Unix(0, finishedAt.Int64).UTC()
		job.FinishedAt = &t
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var result domain.ExplanationResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		job.Result = &result
	}

	return &job, nil
}
