package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/access"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docshare/internal/server/storage"
)

// ResourceTokens is the capability half of the token authority.
type ResourceTokens interface {
	IssueResourceToken(resourceID string, ttl time.Duration) (string, time.Time, error)
	VerifyResourceToken(ctx context.Context, token string) (string, time.Time, error)
}

// DownloadLink is a shareable capability URL.
type DownloadLink struct {
	URL       string
	Token     string
	ExpiresAt time.Time
}

// DownloadService issues and redeems download links. A link is a bearer
// capability: anyone holding it can fetch the document until it expires,
// whether or not they have an account or a permission. Links cannot be
// revoked early.
type DownloadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        PermissionChecker
	tokens      ResourceTokens
	presigner   storage.Presigner
	baseURL     string
	clock       clock.Clock
	logger      logging.Logger
}

func NewDownloadService(db *sql.DB, m repomanager.RepositoryManager, gate PermissionChecker, tokens ResourceTokens,
	presigner storage.Presigner, baseURL string, clk clock.Clock, logger logging.Logger) *DownloadService {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &DownloadService{
		db:          db,
		repomanager: m,
		gate:        gate,
		tokens:      tokens,
		presigner:   presigner,
		baseURL:     strings.TrimRight(baseURL, "/"),
		clock:       clk,
		logger:      logger.With("module", "downloads"),
	}
}

// IssueLink requires the caller to hold any level on documentID.
func (s *DownloadService) IssueLink(ctx context.Context, caller *access.Principal, documentID string) (*DownloadLink, error) {
	if _, err := s.gate.CheckPermission(ctx, caller, documentID, models.AnyLevel); err != nil {
		return nil, err
	}
	if _, err := s.document(ctx, documentID); err != nil {
		return nil, err
	}

	token, exp, err := s.tokens.IssueResourceToken(documentID, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "download link issued", "document_id", documentID, "by", caller.UserID, "expires_at", exp)
	return &DownloadLink{
		URL:       s.baseURL + "/api/download/" + url.PathEscape(token),
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// Redeem exchanges a capability token for a presigned object URL. No
// identity is required. The presigned URL lives for the token's remaining
// lifetime in whole seconds, and at least one second.
func (s *DownloadService) Redeem(ctx context.Context, token string) (string, error) {
	documentID, exp, err := s.tokens.VerifyResourceToken(ctx, token)
	if err != nil {
		return "", err
	}

	remaining := exp.Sub(s.clock.Now()).Truncate(time.Second)
	if remaining < time.Second {
		remaining = time.Second
	}

	d, err := s.document(ctx, documentID)
	if err != nil {
		return "", err
	}

	u, err := s.presigner.PresignGet(ctx, d.StorageKey, remaining)
	if err != nil {
		s.logger.Error(ctx, "presign get failed", "document_id", documentID, "error", err)
		return "", fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return u, nil
}

func (s *DownloadService) document(ctx context.Context, documentID string) (*models.Document, error) {
	d, err := s.repomanager.Documents(s.db).FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrDocumentNotFound
		}
		s.logger.Error(ctx, "document store failure", "document_id", documentID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return d, nil
}
