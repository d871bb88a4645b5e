package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/slide-explainer/internal/platform/sqlite"
	"github.com/phrazzld/slide-explainer/internal/store"
	"github.com/phrazzld/slide-explainer/internal/store/storetest"
	"github.com/phrazzld/slide-explainer/internal/testdb"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStoreContract(t *testing.T) {
	t.Parallel()

	storetest.RunJobStoreTests(t, func(t *testing.T) (store.JobStore, store.OwnerStore) {
		db := testdb.OpenSQLite(t)
		return sqlite.NewJobStore(db, nil), sqlite.NewOwnerStore(db, nil)
	})
}

func TestJobStoreWithTx(t *testing.T) {
	t.Parallel()

	db := testdb.OpenSQLite(t)
	jobs := sqlite.NewJobStore(db, nil)
	ctx := context.Background()

	job := storetest.NewJobAt(t, "tx.pptx", "tx@example.com", time.Now())

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, jobs.WithTx(tx).Create(ctx, job))
	require.NoError(t, tx.Rollback())

	_, err = jobs.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, store.ErrJobNotFound)
}

func TestMigrationsRoundTrip(t *testing.T) {
	t.Parallel()

	db := testdb.OpenSQLite(t)
	ctx := context.Background()

	p, err := sqlite.NewMigrationProvider(db, nil)
	require.NoError(t, err)

	statuses, err := p.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	for _, s := range statuses {
		assert.Equal(t, goose.StateApplied, s.State)
	}

	_, err = p.Down(ctx)
	require.NoError(t, err)
	_, err = p.Down(ctx)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `SELECT 1 FROM jobs`)
	assert.Error(t, err)

	_, err = p.Up(ctx)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `SELECT 1 FROM jobs`)
	assert.NoError(t, err)
}
