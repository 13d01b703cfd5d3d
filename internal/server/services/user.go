// Package services contains server-side business logic: account
// management, document registry, sharing and download links. Services
// receive their collaborators through constructors.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/logging"
	"github.com/dmitrijs2005/docshare/internal/server/auth"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/dmitrijs2005/docshare/internal/server/repositories/repomanager"
)

// IdentityIssuer mints identity tokens.
type IdentityIssuer interface {
	IssueIdentityToken(userID, username string, role models.Role, ttl time.Duration) (string, time.Time, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type Registration struct {
	Username string
	Email    string
	Password string
}

// ProfileUpdate carries the fields a user may change about themselves.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// UserService handles registration, login and account management.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      IdentityIssuer
	hasher      auth.PasswordHasher
	logger      logging.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens IdentityIssuer, hasher auth.PasswordHasher, logger logging.Logger) *UserService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		logger:      logger.With("module", "users"),
	}
}

// Register creates an account with the User role.
func (s *UserService) Register(ctx context.Context, r Registration) (*models.User, error) {
	return s.create(ctx, r, models.RoleUser)
}

// RegisterAdmin creates an account with the Admin role. Callers must have
// passed the admin check, or be the operator CLI or seeder.
func (s *UserService) RegisterAdmin(ctx context.Context, r Registration) (*models.User, error) {
	return s.create(ctx, r, models.RoleAdmin)
}

func (s *UserService) create(ctx context.Context, r Registration, role models.Role) (*models.User, error) {
	username := strings.TrimSpace(r.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrValidation)
	}
	email := models.NormalizeEmail(r.Email)
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(r.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		UserName:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: username or email already registered", common.ErrAlreadyExists)
		}
		s.logger.Error(ctx, "create user failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login checks credentials and issues an identity token. Unknown users
// and wrong passwords both yield common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Spend the same hashing time as for a real account.
			_ = s.hasher.Compare(s.dummy(), password)
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "password compare failed", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	token, exp, err := s.tokens.IssueIdentityToken(user.ID, user.UserName, user.Role, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *UserService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("docshare-placeholder-password")
	})
	return s.dummyHash
}

// UpdateProfile applies a partial update. The role is never touched here.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if name == "" {
			return nil, fmt.Errorf("%w: username is required", common.ErrValidation)
		}
		user.UserName = name
	}
	if upd.Email != nil {
		email := models.NormalizeEmail(*upd.Email)
		if err := models.ValidateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		user.PasswordHash = hash
	}

	return s.save(ctx, repo.Update, user)
}

// SetRole changes a user's role. Only reachable through the admin path.
func (s *UserService) SetRole(ctx context.Context, userID string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrValidation, role)
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role

	u, err := s.save(ctx, s.repomanager.Users(s.db).Update, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "role changed", "user_id", userID, "role", role)
	return u, nil
}

// Delete removes the account and, through the schema, its permissions.
// Identity tokens already issued stop working at the gate.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	removed, err := s.repomanager.Users(s.db).Delete(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "delete user failed", "user_id", userID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !removed {
		return common.ErrUserNotFound
	}
	s.logger.Info(ctx, "user deleted", "user_id", userID)
	return nil
}

func (s *UserService) load(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, update func(context.Context, *models.User) (*models.User, error), user *models.User) (*models.User, error) {
	u, err := update(ctx, user)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, common.ErrAlreadyExists):
		return nil, fmt.Errorf("%w: username or email already registered", common.ErrAlreadyExists)
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrUserNotFound
	default:
		s.logger.Error(ctx, "update user failed", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
}

func validatePassword(p string) error {
	if len(p) < models.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, models.MinPasswordLength)
	}
	return nil
}
