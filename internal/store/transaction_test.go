package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE items (name TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countItems(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n))
	return n
}

func insertItem(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO items (name) VALUES ('a')`)
	return err
}

func TestRunInTransaction_Success(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	err := RunInTransaction(context.Background(), db, insertItem)
	require.NoError(t, err)
	assert.Equal(t, 1, countItems(t, db))
}

func TestRunInTransaction_FunctionError(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	expectedErr := errors.New("function failed")
	err := RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertItem(ctx, tx); err != nil {
			return err
		}
		return expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.Equal(t, 0, countItems(t, db))
}

func TestRunInTransaction_Panic(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
			if err := insertItem(ctx, tx); err != nil {
				return err
			}
			panic("boom")
		})
	})
	assert.Equal(t, 0, countItems(t, db))
}

func TestRunInTransaction_BeginError(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	require.NoError(t, db.Close())

	err := RunInTransaction(context.Background(), db, insertItem)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
}
