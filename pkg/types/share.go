package types

import (
	"strings"
	"time"
)

// Share permissions. VIEW allows reading the contact; VIEW_ADD also allows
// logging meetings with it.
const (
	PermissionView    = "VIEW"
	PermissionViewAdd = "VIEW_ADD"
)

// Share grants one recipient access to one contact. At most one share exists
// per (contact, recipient) pair, expired or not.
type Share struct {
	ShareID          string     `json:"share_id"`
	ContactID        string     `json:"contact_id"`
	OwnerUserID      string     `json:"owner_user_id"`
	SharedWithUserID string     `json:"shared_with_user_id"`
	Permission       string     `json:"permission"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	Note             string     `json:"note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ValidPermission reports whether p is VIEW or VIEW_ADD.
func ValidPermission(p string) bool {
	return p == PermissionView || p == PermissionViewAdd
}

// ParsePermission normalizes p. An empty value yields PermissionView.
func ParsePermission(p string) (string, error) {
	p = strings.ToUpper(strings.TrimSpace(p))
	if p == "" {
		return PermissionView, nil
	}
	if !ValidPermission(p) {
		return "", ErrInvalidPermission
	}
	return p, nil
}

// IsExpired reports whether the share's expiry is before now. A share is
// still usable at the exact instant it expires.
func (s *Share) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}

// IsActive is the negation of IsExpired.
func (s *Share) IsActive(now time.Time) bool {
	return !s.IsExpired(now)
}
