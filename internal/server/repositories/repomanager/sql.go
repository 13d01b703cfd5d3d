// Package repomanager provides the SQL RepositoryManager, wiring together
// repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/dbx"
	"github.com/dmitrijs2005/docshare/internal/server/migrations"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/documents"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/tags"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// goose dialect names.
const (
	DialectPostgres = "pgx"
	DialectSQLite   = "sqlite3"
)

type SQLRepositoryManager struct {
	dialect string
	clock   clock.Clock
}

// NewSQLRepositoryManager returns a manager for the given goose dialect.
func NewSQLRepositoryManager(dialect string, clk clock.Clock) (*SQLRepositoryManager, error) {
	switch dialect {
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &SQLRepositoryManager{dialect: dialect, clock: clk}, nil
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.clock)
}

func (m *SQLRepositoryManager) Permissions(db dbx.DBTX) permissions.Repository {
	return permissions.NewSQLRepository(db, m.clock)
}

func (m *SQLRepositoryManager) Documents(db dbx.DBTX) documents.Repository {
	return documents.NewSQLRepository(db, m.clock)
}

func (m *SQLRepositoryManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewSQLRepository(db, m.clock)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
