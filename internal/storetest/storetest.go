// Package storetest provides fixtures and a behavioural suite shared by the
// types.Store implementations and by the service packages' tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/internal/sqlite"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// NewSQLiteStore attaches a SQLite store in a temporary directory and
// detaches it when the test ends.
func NewSQLiteStore(t testing.TB) types.Store {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

// FixedClock returns a clock that always reports now.
func FixedClock(now time.Time) types.Clock {
	return func() time.Time { return now }
}

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// SeedUser stores a user with the given name and email.
func SeedUser(t testing.TB, store types.Store, name, email string) *types.User {
	t.Helper()
	u := &types.User{Name: name, Email: email}
	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		_, err := tx.Users().Set(context.Background(), u)
		return err
	}))
	return u
}

// SeedContact stores a contact owned by ownerID. It bypasses reminder
// scheduling; use the cascade coordinator when reminders matter.
func SeedContact(t testing.TB, store types.Store, ownerID, name string) *types.Contact {
	t.Helper()
	c := &types.Contact{OwnerID: ownerID, Name: name}
	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		_, err := tx.Contacts().Set(context.Background(), c)
		return err
	}))
	return c
}

// SeedShare stores a share of contact from owner to recipient.
func SeedShare(t testing.TB, store types.Store, contact *types.Contact, recipientID, permission string, expiresAt *time.Time) *types.Share {
	t.Helper()
	s := &types.Share{
		ContactID:        contact.ContactID,
		OwnerUserID:      contact.OwnerID,
		SharedWithUserID: recipientID,
		Permission:       permission,
		ExpiresAt:        expiresAt,
	}
	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		_, err := tx.Shares().Set(context.Background(), s)
		return err
	}))
	return s
}
