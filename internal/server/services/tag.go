package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/repomanager"
)

// TagService labels documents. Changing tags needs Owner or Editor;
// reading them comes with the document.
type TagService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        PermissionChecker
	logger      logging.Logger
}

func NewTagService(db *sql.DB, m repomanager.RepositoryManager, gate PermissionChecker, logger logging.Logger) *TagService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &TagService{db: db, repomanager: m, gate: gate, logger: logger.With("module", "tags")}
}

// Add attaches name to the document. A tag already present is a conflict.
func (s *TagService) Add(ctx context.Context, caller *access.Principal, documentID, name string) (*models.Document, error) {
	tag, err := s.authorize(ctx, caller, documentID, name)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Tags(s.db).Add(ctx, documentID, tag); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: document already has tag %q", common.ErrAlreadyExists, tag)
		}
		return nil, s.storeError(ctx, documentID, err)
	}

	s.logger.Info(ctx, "tag added", "document_id", documentID, "by", caller.UserID, "tag", tag)
	return s.document(ctx, documentID)
}

// Rename replaces from with to, keeping the tag's position in the set.
func (s *TagService) Rename(ctx context.Context, caller *access.Principal, documentID, from, to string) (*models.Document, error) {
	from, err := s.authorize(ctx, caller, documentID, from)
	if err != nil {
		return nil, err
	}
	to, err = models.NormalizeTag(to)
	if err != nil {
		return nil, err
	}

	if from != to {
		err := s.repomanager.Tags(s.db).Rename(ctx, documentID, from, to)
		switch {
		case err == nil:
		case errors.Is(err, common.ErrorNotFound):
			return nil, fmt.Errorf("%w: document has no tag %q", common.ErrorNotFound, from)
		case errors.Is(err, common.ErrAlreadyExists):
			return nil, fmt.Errorf("%w: document already has tag %q", common.ErrAlreadyExists, to)
		default:
			return nil, s.storeError(ctx, documentID, err)
		}
		s.logger.Info(ctx, "tag renamed", "document_id", documentID, "by", caller.UserID, "from", from, "to", to)
	}
	return s.document(ctx, documentID)
}

// Delete detaches name. Removing a tag the document does not carry is
// not an error.
func (s *TagService) Delete(ctx context.Context, caller *access.Principal, documentID, name string) (*models.Document, error) {
	tag, err := s.authorize(ctx, caller, documentID, name)
	if err != nil {
		return nil, err
	}

	removed, err := s.repomanager.Tags(s.db).Delete(ctx, documentID, tag)
	if err != nil {
		return nil, s.storeError(ctx, documentID, err)
	}
	if removed {
		s.logger.Info(ctx, "tag deleted", "document_id", documentID, "by", caller.UserID, "tag", tag)
	}
	return s.document(ctx, documentID)
}

// authorize checks the caller may edit the document, that it still
// exists, and normalizes the tag name.
func (s *TagService) authorize(ctx context.Context, caller *access.Principal, documentID, name string) (string, error) {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.CanEdit); err != nil {
		return "", err
	}
	tag, err := models.NormalizeTag(name)
	if err != nil {
		return "", err
	}
	if _, err := s.repomanager.Documents(s.db).FindByID(ctx, documentID); err != nil {
		return "", s.storeError(ctx, documentID, err)
	}
	return tag, nil
}

func (s *TagService) document(ctx context.Context, documentID string) (*models.Document, error) {
	d, err := loadDocument(ctx, s.db, s.repomanager, documentID)
	if err != nil {
		return nil, s.storeError(ctx, documentID, err)
	}
	return d, nil
}

func (s *TagService) storeError(ctx context.Context, documentID string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrDocumentNotFound
	}
	s.logger.Error(ctx, "tag store failure", "document_id", documentID, "error", err)
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}
