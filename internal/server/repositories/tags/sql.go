package tags

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/dbx"
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

func (r *SQLRepository) Add(ctx context.Context, documentID, tag string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO document_tags (document_id, tag, created_at) VALUES ($1, $2, $3)`,
		documentID, tag, r.clock.Now().UTC())
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Rename(ctx context.Context, documentID, from, to string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE document_tags SET tag = $3 WHERE document_id = $1 AND tag = $2`, documentID, from, to)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, documentID, tag string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM document_tags WHERE document_id = $1 AND tag = $2`, documentID, tag)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) ListByDocument(ctx context.Context, documentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tag FROM document_tags WHERE document_id = $1 ORDER BY tag`, documentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
