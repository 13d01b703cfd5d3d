// Package auth mints and verifies the two token kinds used by docshare
// and hashes account passwords.
//
// Identity tokens assert who is calling. Resource tokens are capability
// tokens: possession of one grants access to a single document until it
// expires. Both are HS256 JWTs signed with one shared secret; they carry
// different audiences and a kind marker, so neither verifier accepts the
// other kind. Tokens are stateless and cannot be revoked before expiry.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer = "docshare"

	AudienceIdentity = "docshare:identity"
	AudienceResource = "docshare:resource"

	KindIdentity = "identity"
	KindResource = "resource"

	DefaultIdentityTTL = time.Hour
	DefaultResourceTTL = 15 * time.Minute
)

// IdentityClaims is the claim set of an identity token.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Kind     string `json:"knd"`
	UserID   string `json:"uid"`
	Username string `json:"usr"`
	Role     string `json:"rol"`
}

// ResourceClaims is the claim set of a resource capability token.
type ResourceClaims struct {
	jwt.RegisteredClaims
	Kind       string `json:"knd"`
	ResourceID string `json:"rid"`
}

type TokenAuthority struct {
	secret      []byte
	identityTTL time.Duration
	resourceTTL time.Duration
	clock       clock.Clock
	logger      logging.Logger
}

// NewTokenAuthority builds an authority signing with secret. Non-positive
// TTLs fall back to DefaultIdentityTTL and DefaultResourceTTL.
func NewTokenAuthority(secret []byte, identityTTL, resourceTTL time.Duration, clk clock.Clock, logger logging.Logger) *TokenAuthority {
	if identityTTL <= 0 {
		identityTTL = DefaultIdentityTTL
	}
	if resourceTTL <= 0 {
		resourceTTL = DefaultResourceTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &TokenAuthority{
		secret:      secret,
		identityTTL: identityTTL,
		resourceTTL: resourceTTL,
		clock:       clk,
		logger:      logger.With("module", "tokens"),
	}
}

func (a *TokenAuthority) registered(audience string, ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
	now := a.clock.Now()
	expiresAt := now.Add(ttl)
	return jwt.RegisteredClaims{
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}, expiresAt
}

// IssueIdentityToken signs an identity assertion valid for ttl, or for
// the configured identity TTL when ttl <= 0.
func (a *TokenAuthority) IssueIdentityToken(userID, username string, role models.Role, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = a.identityTTL
	}
	rc, expiresAt := a.registered(AudienceIdentity, ttl)
	rc.Subject = userID

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		RegisteredClaims: rc,
		Kind:             KindIdentity,
		UserID:           userID,
		Username:         username,
		Role:             string(role),
	})

	s, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

// IssueResourceToken signs a capability for resourceID valid for ttl, or
// for the configured resource TTL when ttl <= 0.
func (a *TokenAuthority) IssueResourceToken(resourceID string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = a.resourceTTL
	}
	rc, expiresAt := a.registered(AudienceResource, ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ResourceClaims{
		RegisteredClaims: rc,
		Kind:             KindResource,
		ResourceID:       resourceID,
	})

	s, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

// VerifyIdentityToken returns the identity asserted by token. Failures
// are reported only as common.ErrExpiredToken or common.ErrMalformedToken.
func (a *TokenAuthority) VerifyIdentityToken(ctx context.Context, token string) (*models.Identity, error) {
	claims := &IdentityClaims{}
	if err := a.parse(ctx, token, claims, AudienceIdentity); err != nil {
		return nil, err
	}

	role, err := models.ParseRole(claims.Role)
	if claims.Kind != KindIdentity || claims.UserID == "" || err != nil {
		a.logger.Warn(ctx, "identity token rejected", "reason", "claim shape", "kind", claims.Kind)
		return nil, common.ErrMalformedToken
	}

	return &models.Identity{UserID: claims.UserID, UserName: claims.Username, Role: role}, nil
}

// VerifyResourceToken returns the resource id a capability token grants
// and the instant it stops being valid.
func (a *TokenAuthority) VerifyResourceToken(ctx context.Context, token string) (string, time.Time, error) {
	claims := &ResourceClaims{}
	if err := a.parse(ctx, token, claims, AudienceResource); err != nil {
		return "", time.Time{}, err
	}

	if claims.Kind != KindResource || claims.ResourceID == "" {
		a.logger.Warn(ctx, "resource token rejected", "reason", "claim shape", "kind", claims.Kind)
		return "", time.Time{}, common.ErrMalformedToken
	}

	return claims.ResourceID, claims.ExpiresAt.Time, nil
}

func (a *TokenAuthority) parse(ctx context.Context, token string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err == nil {
		return nil
	}

	if onlyExpired(err) {
		a.logger.Debug(ctx, "token expired", "audience", audience)
		return common.ErrExpiredToken
	}

	a.logger.Warn(ctx, "token rejected", "audience", audience, "error", err.Error())
	return common.ErrMalformedToken
}

// onlyExpired is true when expiry is the sole reason a token failed. A
// token of the wrong kind or with a bad signature is malformed even if
// it has also expired.
func onlyExpired(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}
	for _, other := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenNotValidYet,
	} {
		if errors.Is(err, other) {
			return false
		}
	}
	return true
}
