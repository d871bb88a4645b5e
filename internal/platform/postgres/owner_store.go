package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/platform/logger"
	"github.com/phrazzld/slide-explainer/internal/store"
)

// PostgresOwnerStore implements the store.OwnerStore interface.
type PostgresOwnerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresOwnerStore creates a new PostgreSQL implementation of the OwnerStore interface.
func NewPostgresOwnerStore(db store.DBTX, logger *slog.Logger) *PostgresOwnerStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresOwnerStore{
		db:     db,
		logger: logger.With(slog.String("component", "owner_store")),
	}
}

var _ store.OwnerStore = (*PostgresOwnerStore)(nil)

// WithTx implements store.OwnerStore.WithTx
func (s *PostgresOwnerStore) WithTx(tx *sql.Tx) store.OwnerStore {
	return &PostgresOwnerStore{db: tx, logger: s.logger}
}

// GetByEmail implements store.OwnerStore.GetByEmail
func (s *PostgresOwnerStore) GetByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	var owner domain.Owner
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM owners WHERE email = $1`,
		domain.NormalizeEmail(email),
	).Scan(&owner.ID, &owner.Email, &owner.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrOwnerNotFound
		}
		return nil, store.NewStoreError("owner", "get", "query failed", MapError(err))
	}
	owner.CreatedAt = owner.CreatedAt.UTC()
	return &owner, nil
}

// Delete implements store.OwnerStore.Delete
// The owner's jobs are removed by the ON DELETE CASCADE foreign key.
func (s *PostgresOwnerStore) Delete(ctx context.Context, email string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	res, err := s.db.ExecContext(ctx, `DELETE FROM owners WHERE email = $1`, domain.NormalizeEmail(email))
	if err != nil {
		log.Error("failed to delete owner", slog.String("error", err.Error()))
		return store.NewStoreError("owner", "delete", "delete failed", MapError(err))
	}
	if err := CheckRowsAffected(res, "owner"); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.ErrOwnerNotFound
		}
		return err
	}

	log.Info("owner deleted")
	return nil
}
