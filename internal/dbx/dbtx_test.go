package dbx

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openLedger returns a throwaway database with a document table and a
// grant table, the pair that WithTx keeps consistent in production.
func openLedger(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE docs (id TEXT PRIMARY KEY);
		CREATE TABLE grants (doc_id TEXT NOT NULL, user_id TEXT NOT NULL, UNIQUE (doc_id, user_id));`)
	require.NoError(t, err)
	return db
}

func counts(t *testing.T, db *sql.DB) (docs, grants int) {
	t.Helper()
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM docs`).Scan(&docs))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM grants`).Scan(&grants))
	return docs, grants
}

func createWithOwner(ctx context.Context, tx DBTX, docID, owner string) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO docs (id) VALUES (?)`, docID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO grants (doc_id, user_id) VALUES (?, ?)`, docID, owner)
	return err
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits both writes", func(t *testing.T) {
		db := openLedger(t)
		require.NoError(t, WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
			return createWithOwner(ctx, tx, "d1", "alice")
		}))
		d, g := counts(t, db)
		assert.Equal(t, 1, d)
		assert.Equal(t, 1, g)
	})

	t.Run("second write failing undoes the first", func(t *testing.T) {
		db := openLedger(t)
		_, err := db.Exec(`INSERT INTO grants (doc_id, user_id) VALUES ('d1', 'alice')`)
		require.NoError(t, err)

		err = WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
			return createWithOwner(ctx, tx, "d1", "alice")
		})
		require.Error(t, err)
		d, g := counts(t, db)
		assert.Equal(t, 0, d)
		assert.Equal(t, 1, g)
	})

	t.Run("callback error rolls back", func(t *testing.T) {
		db := openLedger(t)
		boom := errors.New("boom")
		err := WithTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, createWithOwner(ctx, tx, "d1", "alice"))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		d, g := counts(t, db)
		assert.Zero(t, d+g)
	})

	t.Run("begin fails on closed db", func(t *testing.T) {
		db := openLedger(t)
		require.NoError(t, db.Close())
		err := WithTx(ctx, db, nil, func(context.Context, DBTX) error {
			t.Fatal("callback must not run")
			return nil
		})
		assert.Error(t, err)
	})
}

func TestWithTx_PanicRollsBackAndPropagates(t *testing.T) {
	db := openLedger(t)

	defer func() {
		require.Equal(t, "kaput", recover())
		d, g := counts(t, db)
		assert.Zero(t, d+g)
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, createWithOwner(ctx, tx, "d1", "alice"))
		panic("kaput")
	})
}

func TestWithTx_CommitErrorIsReturned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO docs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO grants").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return createWithOwner(ctx, tx, "d1", "alice")
	})
	require.EqualError(t, err, "commit failed")
	require.NoError(t, mock.ExpectationsWereMet())
}
