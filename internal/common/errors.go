// Package common defines the sentinel error taxonomy and shared constants
// used across the docshare server layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Authentication errors.
	ErrMissingCredentials = errors.New("missing credentials")
	ErrMalformedToken     = errors.New("malformed token")
	ErrExpiredToken       = errors.New("token expired")
	ErrUnknownPrincipal   = errors.New("unknown principal")

	// Authorization errors.
	ErrNoPermission           = errors.New("no permission for this document")
	ErrInsufficientPermission = errors.New("insufficient permission")
	ErrAdminRequired          = errors.New("admin role required")

	// Sharing / document errors.
	ErrUserNotFound     = errors.New("user not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrConflict         = errors.New("conflicting permission change")
	ErrOwnerImmutable   = errors.New("owner permission cannot be changed")
)
