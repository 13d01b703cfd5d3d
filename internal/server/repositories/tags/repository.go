// Package tags stores the labels attached to documents. A tag appears at
// most once per document.
package tags

import "context"

type Repository interface {
	// Add returns common.ErrAlreadyExists when the document already
	// carries tag.
	Add(ctx context.Context, documentID, tag string) error
	// Rename returns common.ErrorNotFound when from is absent and
	// common.ErrAlreadyExists when to is already present.
	Rename(ctx context.Context, documentID, from, to string) error
	Delete(ctx context.Context, documentID, tag string) (bool, error)
	ListByDocument(ctx context.Context, documentID string) ([]string, error)
}
