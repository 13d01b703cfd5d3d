package permissions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/dbx"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/google/uuid"
)

type SQLRepository struct {
	db    dbx.DBTX
	clock clock.Clock
}

func NewSQLRepository(db dbx.DBTX, clk clock.Clock) *SQLRepository {
	if clk == nil {
		clk = clock.Real()
	}
	return &SQLRepository{db: db, clock: clk}
}

// The conflict target is the permissions_document_user_key constraint.
// A fresh id is generated per call but only used when the row is new.
const upsertPermission = `INSERT INTO permissions (id, document_id, user_id, level, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (document_id, user_id)
		 DO UPDATE SET level = EXCLUDED.level, updated_at = EXCLUDED.updated_at`

const ownerGuard = `
		 WHERE permissions.level <> 'Owner'`

const selectPermission = `SELECT id, document_id, user_id, level, created_at, updated_at FROM permissions `

func (r *SQLRepository) Grant(ctx context.Context, documentID, userID string, level models.Level) (*models.Permission, error) {
	return r.grant(ctx, upsertPermission, documentID, userID, level)
}

func (r *SQLRepository) GrantUnlessOwner(ctx context.Context, documentID, userID string, level models.Level) (*models.Permission, error) {
	return r.grant(ctx, upsertPermission+ownerGuard, documentID, userID, level)
}

func (r *SQLRepository) grant(ctx context.Context, query, documentID, userID string, level models.Level) (*models.Permission, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: unknown permission level %q", common.ErrValidation, level)
	}

	now := r.clock.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, uuid.NewString(), documentID, userID, string(level), now, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return r.get(ctx, documentID, userID)
}

func (r *SQLRepository) get(ctx context.Context, documentID, userID string) (*models.Permission, error) {
	rows, err := r.db.QueryContext(ctx, selectPermission+`WHERE document_id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	list, err := scanPermissions(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.ErrorNotFound
	}
	return &list[0], nil
}

// HoldIfAny rewrites the user's row in place when its level is one of
// levels. Inside a transaction this locks the row until commit, so a
// concurrent revoke or downgrade either lands first or waits.
func (r *SQLRepository) HoldIfAny(ctx context.Context, documentID, userID string, levels models.LevelSet) (bool, error) {
	if len(levels) == 0 {
		return false, nil
	}

	args := []any{documentID, userID}
	marks := make([]string, 0, len(levels))
	for _, l := range levels.Slice() {
		args = append(args, string(l))
		marks = append(marks, fmt.Sprintf("$%d", len(args)))
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE permissions SET level = level WHERE document_id = $1 AND user_id = $2 AND level IN (`+
			strings.Join(marks, ", ")+`)`, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Lookup(ctx context.Context, documentID, userID string) (models.Level, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT level FROM permissions WHERE document_id = $1 AND user_id = $2`, documentID, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("db error: %w", err)
	}

	level, err := models.ParseLevel(raw)
	if err != nil {
		return "", false, fmt.Errorf("db error: %w", err)
	}
	return level, true, nil
}

func (r *SQLRepository) Revoke(ctx context.Context, documentID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE document_id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) RevokeAll(ctx context.Context, documentID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Permission, error) {
	rows, err := r.db.QueryContext(ctx, selectPermission+`WHERE document_id = $1 ORDER BY created_at, user_id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanPermissions(rows)
}

func scanPermissions(rows *sql.Rows) ([]models.Permission, error) {
	defer rows.Close()

	var out []models.Permission
	for rows.Next() {
		var (
			p     models.Permission
			level string
		)
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.UserID, &level, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		l, err := models.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.Level = l
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
