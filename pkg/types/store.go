package types

import (
	"context"
	"errors"
	"time"
)

// Store defines backend-agnostic transactional access to rapport entities.
// Callers attach to a backend, run work inside Update or View, and detach
// when done.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, Update and View return ErrStoreDetached.
	Detach() error

	// Update runs fn inside a read-write transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn inside a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the typed tables bound to one transaction. A Tx must not be
// used after its callback returns.
type Tx interface {
	Users() UserTable
	Contacts() ContactTable
	Meetings() MeetingTable
	Reminders() ReminderTable
	Shares() ShareTable
}

// UserTable stores registered users.
type UserTable interface {
	// Get returns ErrNotFound if no user has the given ID.
	Get(ctx context.Context, id string) (*User, error)
	// GetByEmail matches the lower-cased email. Returns ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Set creates or updates a user, generating a UUID v7 when UserID is
	// empty. Returns ErrEmailTaken when another user holds the email.
	Set(ctx context.Context, u *User) (string, error)
	// Fetch returns every user ordered by creation time.
	Fetch(ctx context.Context) ([]*User, error)
}

// ContactTable stores contacts.
type ContactTable interface {
	Get(ctx context.Context, id string) (*Contact, error)
	Set(ctx context.Context, c *Contact) (string, error)
	Delete(ctx context.Context, id string) error
	// FetchByOwner returns the owner's contacts ordered by name.
	FetchByOwner(ctx context.Context, ownerID string) ([]*Contact, error)
}

// MeetingTable stores meetings.
type MeetingTable interface {
	Get(ctx context.Context, id string) (*Meeting, error)
	Set(ctx context.Context, m *Meeting) (string, error)
	Delete(ctx context.Context, id string) error
	// FetchByContact returns meetings newest first.
	FetchByContact(ctx context.Context, contactID string) ([]*Meeting, error)
	// FetchByUser returns meetings owned by the user, newest first.
	FetchByUser(ctx context.Context, userID string) ([]*Meeting, error)
	// DeleteByContact removes every meeting of the contact and returns how
	// many rows were removed.
	DeleteByContact(ctx context.Context, contactID string) (int, error)
}

// ReminderTable stores reminders.
type ReminderTable interface {
	Get(ctx context.Context, id string) (*Reminder, error)
	Set(ctx context.Context, r *Reminder) (string, error)
	// FetchByUser returns the user's reminders ordered by ScheduledAt. An
	// empty status returns every status.
	FetchByUser(ctx context.Context, userID, status string) ([]*Reminder, error)
	FetchByContact(ctx context.Context, contactID string) ([]*Reminder, error)
	DeleteByContact(ctx context.Context, contactID string) (int, error)
	DeleteByMeeting(ctx context.Context, meetingID string) (int, error)
}

// ShareTable stores share grants.
type ShareTable interface {
	Get(ctx context.Context, id string) (*Share, error)
	// Set returns ErrDuplicateShare when a second row would exist for the
	// same (contact, recipient) pair.
	Set(ctx context.Context, s *Share) (string, error)
	Delete(ctx context.Context, id string) error
	GetByContactAndRecipient(ctx context.Context, contactID, recipientID string) (*Share, error)
	ExistsByContactAndRecipient(ctx context.Context, contactID, recipientID string) (bool, error)
	// FetchByOwner returns every grant the user issued, newest first.
	FetchByOwner(ctx context.Context, ownerID string) ([]*Share, error)
	// FetchActiveByRecipient returns grants to the user that have no expiry
	// or expire after now, newest first.
	FetchActiveByRecipient(ctx context.Context, recipientID string, now time.Time) ([]*Share, error)
	FetchByContact(ctx context.Context, contactID string) ([]*Share, error)
	DeleteByContact(ctx context.Context, contactID string) (int, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Clock returns the current time. Services read it once per operation.
type Clock func() time.Time

// Now returns c(), or time.Now() when c is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}
