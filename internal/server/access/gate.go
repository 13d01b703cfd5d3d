// Package access is the authorization gate every protected operation
// passes through. It turns a bearer identity token into a Principal and,
// for document-scoped operations, checks the caller's level in the
// permission ledger.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/models"
)

// TokenVerifier is the identity half of the token authority.
type TokenVerifier interface {
	VerifyIdentityToken(ctx context.Context, token string) (*models.Identity, error)
}

// UserFinder resolves a token's subject to a live account.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// PermissionLookup reads the caller's level on a document.
type PermissionLookup interface {
	Lookup(ctx context.Context, documentID, userID string) (models.Level, bool, error)
}

// Principal is the resolved caller. DocumentID and Level are set only
// after a document-scoped check.
type Principal struct {
	UserID     string
	UserName   string
	Email      string
	Role       models.Role
	DocumentID string
	Level      models.Level
}

type Gate struct {
	tokens TokenVerifier
	users  UserFinder
	ledger PermissionLookup
	logger logging.Logger
}

func NewGate(tokens TokenVerifier, users UserFinder, ledger PermissionLookup, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Gate{tokens: tokens, users: users, ledger: ledger, logger: logger.With("module", "gate")}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", common.ErrMissingCredentials
	}
	parts := strings.SplitN(header, " ", 2)
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", common.ErrMalformedToken
	}
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", common.ErrMissingCredentials
	}
	return strings.TrimSpace(parts[1]), nil
}

// Authenticate verifies token and resolves its subject. Token failures
// come back as common.ErrExpiredToken or common.ErrMalformedToken; a
// deleted account yields common.ErrUnknownPrincipal.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, common.ErrMissingCredentials
	}

	id, err := g.tokens.VerifyIdentityToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := g.users.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			g.logger.Info(ctx, "token for unknown principal", "user_id", id.UserID)
			return nil, common.ErrUnknownPrincipal
		}
		g.logger.Error(ctx, "credential store failure", "user_id", id.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	// Role and username come from the store, not the token, so role
	// changes apply to tokens already issued.
	return &Principal{
		UserID:   user.ID,
		UserName: user.UserName,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

// CheckPermission checks an authenticated principal's level on documentID.
// The returned Principal is a copy carrying DocumentID and Level.
func (g *Gate) CheckPermission(ctx context.Context, p *Principal, documentID string, required models.LevelSet) (*Principal, error) {
	level, ok, err := g.ledger.Lookup(ctx, documentID, p.UserID)
	if err != nil {
		g.logger.Error(ctx, "permission ledger failure", "document_id", documentID, "user_id", p.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		g.logger.Debug(ctx, "no permission", "document_id", documentID, "user_id", p.UserID)
		return nil, common.ErrNoPermission
	}
	if !models.LevelSatisfies(level, required) {
		g.logger.Debug(ctx, "insufficient permission",
			"document_id", documentID, "user_id", p.UserID, "held", level, "required", required.String())
		return nil, common.ErrInsufficientPermission
	}

	out := *p
	out.DocumentID = documentID
	out.Level = level
	return &out, nil
}

// Authorize runs the full document-scoped check for token.
func (g *Gate) Authorize(ctx context.Context, token, documentID string, required models.LevelSet) (*Principal, error) {
	p, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return g.CheckPermission(ctx, p, documentID, required)
}

// RequireAdmin is the role path: authenticate, then require the Admin
// role. The permission ledger is not consulted.
func (g *Gate) RequireAdmin(ctx context.Context, token string) (*Principal, error) {
	p, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleAdmin {
		return nil, common.ErrAdminRequired
	}
	return p, nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
