package types

import "errors"

// Access and lifecycle errors. Services wrap these with context; callers
// match them with errors.Is.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAccessDenied      = errors.New("access denied")
	ErrShareExpired      = errors.New("share has expired")
	ErrDuplicateShare    = errors.New("contact is already shared with this user")
	ErrSelfShare         = errors.New("cannot share a contact with yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrCascadeFailed     = errors.New("cascade failed")
)

// Validation errors.
var (
	ErrInvalidID          = errors.New("invalid entity ID")
	ErrInvalidData        = errors.New("invalid entity data")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPermission  = errors.New("invalid share permission")
	ErrInvalidMedium      = errors.New("invalid meeting medium")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IsUserError reports whether err is caused by the caller (bad input, missing
// entity, missing rights) rather than by the system.
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrForbidden, ErrAccessDenied, ErrShareExpired,
		ErrDuplicateShare, ErrSelfShare, ErrRecipientNotFound,
		ErrInvalidID, ErrInvalidData, ErrInvalidName, ErrInvalidEmail,
		ErrInvalidPermission, ErrInvalidMedium, ErrEmailTaken,
		ErrInvalidCredentials,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
