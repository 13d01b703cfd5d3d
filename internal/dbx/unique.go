package dbx

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE Postgres reports for duplicate keys.
const pgUniqueViolation = "23505"

// sqliteConstraint is SQLITE_CONSTRAINT; extended codes share its low byte.
const sqliteConstraint = 19

// IsUniqueViolation reports whether err was caused by a UNIQUE or
// PRIMARY KEY constraint in either of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var coded interface{ Code() int }
	if errors.As(err, &coded) && coded.Code()&0xff == sqliteConstraint {
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}

	return false
}
