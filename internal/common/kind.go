package common

import "errors"

// Kind groups errors by how the request boundary should report them.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Classify maps err onto a Kind. Unknown errors are internal.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrorInternal):
		return KindInternal
	case errors.Is(err, ErrMissingCredentials),
		errors.Is(err, ErrMalformedToken),
		errors.Is(err, ErrExpiredToken),
		errors.Is(err, ErrUnknownPrincipal),
		errors.Is(err, ErrInvalidCredentials):
		return KindUnauthenticated
	case errors.Is(err, ErrNoPermission),
		errors.Is(err, ErrInsufficientPermission),
		errors.Is(err, ErrAdminRequired):
		return KindForbidden
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrDocumentNotFound),
		errors.Is(err, ErrorNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrOwnerImmutable),
		errors.Is(err, ErrAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindInvalid
	default:
		return KindInternal
	}
}
