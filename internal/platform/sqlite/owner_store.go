package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/platform/logger"
	"github.com/phrazzld/slide-explainer/internal/store"
)

// OwnerStore implements store.OwnerStore on SQLite.
type OwnerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewOwnerStore creates an OwnerStore using db.
func NewOwnerStore(db store.DBTX, logger *slog.Logger) *OwnerStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OwnerStore{db: db, logger: logger.With(slog.String("component", "owner_store"))}
}

var _ store.OwnerStore = (*OwnerStore)(nil)

// WithTx implements store.OwnerStore.WithTx
func (s *OwnerStore) WithTx(tx *sql.Tx) store.OwnerStore {
	return &OwnerStore{db: tx, logger: s.logger}
}

// GetByEmail implements store.OwnerStore.GetByEmail
func (s *OwnerStore) GetByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	var (
		id        string
		owner     domain.Owner
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM owners WHERE email = ?`,
		domain.NormalizeEmail(email),
	).Scan(&id, &owner.Email, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrOwnerNotFound
		}
		return nil, store.NewStoreError("owner", "get", "query failed", MapError(err))
	}

	owner.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, store.NewStoreError("owner", "get", "invalid id", err)
	}
	owner.CreatedAt = time.Unix(0, createdAt).UTC()
	return &owner, nil
}

// Delete implements store.OwnerStore.Delete
func (s *OwnerStore) Delete(ctx context.Context, email string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	res, err := s.db.ExecContext(ctx, `DELETE FROM owners WHERE email = ?`, domain.NormalizeEmail(email))
	if err != nil {
		log.Error("failed to delete owner", slog.String("error", err.Error()))
		return store.NewStoreError("owner", "delete", "delete failed", MapError(err))
	}
	if err := checkRowsAffected(res); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrOwnerNotFound
		}
		return err
	}

	log.Info("owner deleted")
	return nil
}
