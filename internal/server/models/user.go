package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/docshare/internal/common"
)

// Role is the account-wide role of a user.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// ParseRole validates s against the closed set of roles.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", common.ErrValidation, s)
	}
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is what an identity token asserts about its bearer.
type Identity struct {
	UserID   string
	UserName string
	Role     Role
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// ValidateEmail checks the address shape only; deliverability is not verified.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	return nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
