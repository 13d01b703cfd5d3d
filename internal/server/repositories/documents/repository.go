// Package documents stores document metadata. Content lives in object
// storage under StorageKey.
package documents

import (
	"context"

	"github.com/dmitrijs2005/docshare/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	UpdateFileName(ctx context.Context, id, fileName string) (*models.Document, error)
	Delete(ctx context.Context, id string) (bool, error)
}
