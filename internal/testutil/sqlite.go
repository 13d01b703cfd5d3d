// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/docshare/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// OpenSQLite returns a migrated SQLite database in a per-test temp file.
// Foreign keys are enforced and writers wait on each other instead of
// failing with SQLITE_BUSY.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "docshare.db") +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpContext(context.Background(), db, "."))

	return db
}
