package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/dbx"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docshare/internal/server/storage"
)

// UploadTicket is a presigned PUT for a document's object.
type UploadTicket struct {
	URL       string
	ExpiresAt time.Time
}

type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        PermissionChecker
	presigner   storage.Presigner
	uploadTTL   time.Duration
	clock       clock.Clock
	logger      logging.Logger
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, gate PermissionChecker, presigner storage.Presigner,
	uploadTTL time.Duration, clk clock.Clock, logger logging.Logger) *DocumentService {
	if uploadTTL <= 0 {
		uploadTTL = storage.DefaultTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &DocumentService{
		db:          db,
		repomanager: m,
		gate:        gate,
		presigner:   presigner,
		uploadTTL:   uploadTTL,
		clock:       clk,
		logger:      logger.With("module", "documents"),
	}
}

// Create registers a document and makes the caller its Owner, atomically.
func (s *DocumentService) Create(ctx context.Context, caller *access.Principal, fileName string) (*models.Document, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", common.ErrValidation)
	}

	var doc *models.Document
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		d, err := s.repomanager.Documents(tx).Create(ctx, &models.Document{OwnerID: caller.UserID, FileName: fileName})
		if err != nil {
			return err
		}
		if _, err := s.repomanager.Permissions(tx).Grant(ctx, d.ID, caller.UserID, models.LevelOwner); err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "create document failed", "user_id", caller.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "document created", "document_id", doc.ID, "owner_id", caller.UserID)
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, caller *access.Principal, documentID string) (*models.Document, error) {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.AnyLevel); err != nil {
		return nil, err
	}
	return s.find(ctx, documentID)
}

func (s *DocumentService) Rename(ctx context.Context, caller *access.Principal, documentID, fileName string) (*models.Document, error) {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.CanEdit); err != nil {
		return nil, err
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", common.ErrValidation)
	}

	if _, err := s.repomanager.Documents(s.db).UpdateFileName(ctx, documentID, fileName); err != nil {
		return nil, s.storeError(ctx, documentID, err)
	}
	return s.find(ctx, documentID)
}

// Delete removes the document and, in the same transaction, every
// permission on it. The number of revoked permissions is logged. Tags
// go with the document row.
func (s *DocumentService) Delete(ctx context.Context, caller *access.Principal, documentID string) error {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.OwnerOnly); err != nil {
		return err
	}

	var revoked int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Permissions(tx).RevokeAll(ctx, documentID)
		if err != nil {
			return err
		}
		removed, err := s.repomanager.Documents(tx).Delete(ctx, documentID)
		if err != nil {
			return err
		}
		if !removed {
			return common.ErrorNotFound
		}
		revoked = n
		return nil
	})
	if err != nil {
		return s.storeError(ctx, documentID, err)
	}

	s.logger.Info(ctx, "document deleted", "document_id", documentID, "by", caller.UserID, "permissions_revoked", revoked)
	return nil
}

// UploadURL returns a presigned PUT for the document's object.
func (s *DocumentService) UploadURL(ctx context.Context, caller *access.Principal, documentID string) (*UploadTicket, error) {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.CanEdit); err != nil {
		return nil, err
	}
	d, err := s.find(ctx, documentID)
	if err != nil {
		return nil, err
	}

	expiresAt := s.clock.Now().Add(s.uploadTTL)
	url, err := s.presigner.PresignPut(ctx, d.StorageKey, s.uploadTTL)
	if err != nil {
		s.logger.Error(ctx, "presign put failed", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return &UploadTicket{URL: url, ExpiresAt: expiresAt}, nil
}

func (s *DocumentService) find(ctx context.Context, documentID string) (*models.Document, error) {
	d, err := loadDocument(ctx, s.db, s.repomanager, documentID)
	if err != nil {
		return nil, s.storeError(ctx, documentID, err)
	}
	return d, nil
}

// loadDocument reads the document row together with its tags.
func loadDocument(ctx context.Context, db dbx.DBTX, rm repomanager.RepositoryManager, documentID string) (*models.Document, error) {
	d, err := rm.Documents(db).FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	d.Tags, err = rm.Tags(db).ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DocumentService) storeError(ctx context.Context, documentID string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrDocumentNotFound
	}
	s.logger.Error(ctx, "document store failure", "document_id", documentID, "error", err)
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}
