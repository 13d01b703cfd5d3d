// Package permissions is the permission ledger: the single record of
// which user holds which level on which document. At most one row exists
// per (document, user) pair.
package permissions

import (
	"context"

	"github.com/dmitrijs2005/docshare/internal/server/models"
)

type Repository interface {
	// Grant inserts or updates the level for the pair in one atomic
	// statement and returns the stored row.
	Grant(ctx context.Context, documentID, userID string, level models.Level) (*models.Permission, error)
	// GrantUnlessOwner is Grant that leaves an existing Owner row
	// untouched. The returned row shows the level actually stored.
	GrantUnlessOwner(ctx context.Context, documentID, userID string, level models.Level) (*models.Permission, error)
	// HoldIfAny locks the user's row for the surrounding transaction when
	// it carries one of levels, and reports whether it did.
	HoldIfAny(ctx context.Context, documentID, userID string, levels models.LevelSet) (bool, error)
	// Lookup reports the held level, or false when there is none.
	Lookup(ctx context.Context, documentID, userID string) (models.Level, bool, error)
	Revoke(ctx context.Context, documentID, userID string) (bool, error)
	RevokeAll(ctx context.Context, documentID string) (int64, error)
	ListByDocument(ctx context.Context, documentID string) ([]models.Permission, error)
}
