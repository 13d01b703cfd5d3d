package users

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

// SQLRepository works against PostgreSQL (pgx) and SQLite alike.
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

const selectUser = `SELECT id, username, email, password_hash, role, created_at, updated_at FROM users `

// Create inserts user, assigning an id when it has none. Duplicate
// usernames or emails yield common.ErrAlreadyExists.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := r.clock.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	query :=
		`INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.Email, string(user.PasswordHash), string(user.Role), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, selectUser+`WHERE id = $1`, id)
}

// FindByUsername matches case-insensitively.
func (r *SQLRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, selectUser+`WHERE LOWER(username) = LOWER($1)`, username)
}

// FindByEmail matches case-insensitively.
func (r *SQLRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, selectUser+`WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *SQLRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u    models.User
		hash string
		role string
	)
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.UserName, &u.Email, &hash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	u.PasswordHash = []byte(hash)
	u.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &u, nil
}

// Update writes the mutable fields (username, email, password hash, role).
// The id and creation time never change.
func (r *SQLRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	user.UpdatedAt = r.clock.Now().UTC()

	query :=
		`UPDATE users
		 SET username = $2, email = $3, password_hash = $4, role = $5, updated_at = $6
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.Email, string(user.PasswordHash), string(user.Role), user.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, common.ErrorNotFound
	}

	return user, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
