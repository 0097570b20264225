package types

import (
	"strings"
	"time"
)

// User is a registered account. Users own contacts and receive shares.
type User struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"` // Unique, stored lower-cased.
	PasswordHash string    `json:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the user's name and email.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrInvalidName
	}
	if !ValidEmail(u.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidEmail performs a shallow check: one @ with text on both sides and a
// dot in the domain.
func ValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.ContainsAny(email, " \t\n") {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
