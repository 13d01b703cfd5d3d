package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

// Create assigns an id and a storage key when they are empty.
func (r *SQLRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.StorageKey == "" {
		doc.StorageKey = "documents/" + doc.ID + "/" + uuid.NewString()
	}
	now := r.clock.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	query :=
		`INSERT INTO documents (id, owner_id, file_name, storage_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.OwnerID, doc.FileName, doc.StorageKey, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query :=
		`SELECT id, owner_id, file_name, storage_key, created_at, updated_at
		 FROM documents WHERE id = $1`

	var d models.Document
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&d.ID, &d.OwnerID, &d.FileName, &d.StorageKey, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &d, nil
}

func (r *SQLRepository) UpdateFileName(ctx context.Context, id, fileName string) (*models.Document, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET file_name = $2, updated_at = $3 WHERE id = $1`, id, fileName, r.clock.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
