package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/dbx"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/repomanager"
)

// PermissionChecker is the document-scoped half of the gate.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, p *access.Principal, documentID string, required models.LevelSet) (*access.Principal, error)
}

// errSharerLostAccess aborts a share whose caller no longer holds a
// sharing level by the time the grant is written.
var errSharerLostAccess = errors.New("sharer lost access")

// SharingService lets Owners and Editors extend access to other users.
type SharingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        PermissionChecker
	logger      logging.Logger
}

func NewSharingService(db *sql.DB, m repomanager.RepositoryManager, gate PermissionChecker, logger logging.Logger) *SharingService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &SharingService{db: db, repomanager: m, gate: gate, logger: logger.With("module", "sharing")}
}

// Share grants level on documentID to the user registered under email.
// The caller must hold Owner or Editor; the ledger is not touched when
// that check fails. Only Editor and Viewer can be granted this way, and
// an existing Owner row is never changed. The caller's row is held for
// the duration of the grant, so a revoke racing the share cannot be
// overtaken by it.
func (s *SharingService) Share(ctx context.Context, caller *access.Principal, documentID, email string, level models.Level) (*models.Permission, error) {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.CanShare); err != nil {
		return nil, err
	}
	if !models.Shareable.Contains(level) {
		return nil, fmt.Errorf("%w: level must be one of %s", common.ErrValidation, models.Shareable)
	}

	target, err := s.resolve(ctx, email)
	if err != nil {
		return nil, err
	}
	if target.ID == caller.UserID {
		return nil, fmt.Errorf("%w: cannot share a document with yourself", common.ErrValidation)
	}

	var granted *models.Permission
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ledger := s.repomanager.Permissions(tx)
		held, err := ledger.HoldIfAny(ctx, documentID, caller.UserID, models.CanShare)
		if err != nil {
			return err
		}
		if !held {
			return errSharerLostAccess
		}

		p, err := ledger.GrantUnlessOwner(ctx, documentID, target.ID, level)
		if err != nil {
			return err
		}
		if p.Level != level {
			return common.ErrOwnerImmutable
		}
		granted = p
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, common.ErrOwnerImmutable):
		return nil, err
	case errors.Is(err, errSharerLostAccess):
		if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.CanShare); err != nil {
			return nil, err
		}
		return nil, common.ErrInsufficientPermission
	default:
		s.logger.Error(ctx, "grant failed", "document_id", documentID, "user_id", target.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "document shared",
		"document_id", documentID, "by", caller.UserID, "to", target.ID, "level", level)
	return granted, nil
}

// Unshare removes the target's permission. Owner only; the Owner row
// itself cannot be removed.
func (s *SharingService) Unshare(ctx context.Context, caller *access.Principal, documentID, email string) error {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.OwnerOnly); err != nil {
		return err
	}

	target, err := s.resolve(ctx, email)
	if err != nil {
		return err
	}

	ledger := s.repomanager.Permissions(s.db)
	level, ok, err := ledger.Lookup(ctx, documentID, target.ID)
	if err != nil {
		s.logger.Error(ctx, "lookup failed", "document_id", documentID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return fmt.Errorf("%w: user has no permission on this document", common.ErrorNotFound)
	}
	if level == models.LevelOwner {
		return common.ErrOwnerImmutable
	}

	if _, err := ledger.Revoke(ctx, documentID, target.ID); err != nil {
		s.logger.Error(ctx, "revoke failed", "document_id", documentID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "document unshared", "document_id", documentID, "by", caller.UserID, "from", target.ID)
	return nil
}

// List returns every permission on documentID. Any level may list.
func (s *SharingService) List(ctx context.Context, caller *access.Principal, documentID string) ([]models.Permission, error) {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.AnyLevel); err != nil {
		return nil, err
	}
	list, err := s.repomanager.Permissions(s.db).ListByDocument(ctx, documentID)
	if err != nil {
		s.logger.Error(ctx, "list permissions failed", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return list, nil
}

func (s *SharingService) resolve(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).FindByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		s.logger.Error(ctx, "credential store failure", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return u, nil
}
