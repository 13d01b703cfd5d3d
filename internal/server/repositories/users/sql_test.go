package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/docshare/internal/clock"
	"github.com/dmitrijs2005/docshare/internal/common"
	"github.com/dmitrijs2005/docshare/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLRepository(db, clock.Fake(now)), mock
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*role,\s*created_at,\s*updated_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)$`

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).
		WithArgs("u-1", "alice", "alice@example.com", "hash", "User", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), &models.User{
		ID: "u-1", UserName: "alice", Email: "alice@example.com", PasswordHash: []byte("hash"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_GeneratesID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), &models.User{UserName: "bob", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, got.ID, 36)
}

func TestCreate_Errors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))
	_, err = repo.Create(context.Background(), &models.User{UserName: "alice"})
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "role", "created_at", "updated_at"})
}

func TestFindByUsername_CaseInsensitive(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*role,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+LOWER\(username\)\s*=\s*LOWER\(\$1\)$`
	mock.ExpectQuery(q).
		WithArgs("ALICE").
		WillReturnRows(userRows().AddRow("u-1", "alice", "a@x.io", "h", "Admin", now, now))

	got, err := repo.FindByUsername(context.Background(), "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, []byte("h"), got.PasswordHash)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByEmail_UnknownRoleIsError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`WHERE\s+LOWER\(email\)`).
		WillReturnRows(userRows().AddRow("u-1", "alice", "a@x.io", "h", "root", now, now))

	_, err := repo.FindByEmail(context.Background(), "a@x.io")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^UPDATE\s+users\s+SET\s+username\s*=\s*\$2,\s*email\s*=\s*\$3,\s*password_hash\s*=\s*\$4,\s*role\s*=\s*\$5,\s*updated_at\s*=\s*\$6\s+WHERE\s+id\s*=\s*\$1$`

	u := &models.User{ID: "u-1", UserName: "alice", Email: "a@x.io", PasswordHash: []byte("h"), Role: models.RoleUser}

	mock.ExpectExec(q).WithArgs("u-1", "alice", "a@x.io", "h", "User", now).WillReturnResult(sqlmock.NewResult(0, 1))
	_, err := repo.Update(context.Background(), u)
	require.NoError(t, err)

	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = repo.Update(context.Background(), u)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectExec(q).WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = repo.Update(context.Background(), u)
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `^DELETE FROM users WHERE id = \$1$`

	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	removed, err := repo.Delete(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectExec(q).WithArgs("u-2").WillReturnResult(sqlmock.NewResult(0, 0))
	removed, err = repo.Delete(context.Background(), "u-2")
	require.NoError(t, err)
	assert.False(t, removed)
}
