package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/docshare/internal/dbx"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/documents"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/permissions"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/tags"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// use the same code against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Permissions(db dbx.DBTX) permissions.Repository
	Documents(db dbx.DBTX) documents.Repository
	Tags(db dbx.DBTX) tags.Repository
}
