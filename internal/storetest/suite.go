package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// Run exercises a fresh store returned by newStore against the types.Store
// contract. Each subtest gets its own store.
func Run(t *testing.T, newStore func(t *testing.T) types.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store types.Store)
	}{
		{"users", testUsers},
		{"contacts", testContacts},
		{"meetings", testMeetings},
		{"reminders", testReminders},
		{"shares", testShares},
		{"rollback", testRollback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

var errBoom = errors.New("boom")

func testUsers(t *testing.T, store types.Store) {
	ctx := context.Background()
	ada := SeedUser(t, store, "Ada", "Ada@Example.com")
	assert.NotEmpty(t, ada.UserID)
	assert.Equal(t, "ada@example.com", ada.Email)

	err := store.View(ctx, func(tx types.Tx) error {
		got, err := tx.Users().GetByEmail(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Equal(t, ada.UserID, got.UserID)

		_, err = tx.Users().Get(ctx, "0195f1e0-0000-7000-8000-000000000000")
		assert.ErrorIs(t, err, types.ErrNotFound)

		_, err = tx.Users().GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, types.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	err = store.Update(ctx, func(tx types.Tx) error {
		_, err := tx.Users().Set(ctx, &types.User{Name: "Other", Email: "ada@example.com"})
		return err
	})
	assert.ErrorIs(t, err, types.ErrEmailTaken)

	SeedUser(t, store, "Bob", "bob@example.com")
	err = store.View(ctx, func(tx types.Tx) error {
		users, err := tx.Users().Fetch(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)
		return nil
	})
	require.NoError(t, err)
}

func testContacts(t *testing.T, store types.Store) {
	ctx := context.Background()
	owner := SeedUser(t, store, "Owner", "owner@example.com")
	other := SeedUser(t, store, "Other", "other@example.com")

	birthday := Date(1990, time.February, 28)
	c := &types.Contact{
		OwnerID:  owner.UserID,
		Name:     "Zoe",
		Emails:   []string{"zoe@example.com"},
		Phones:   []string{"+1 555 0100", "+1 555 0101"},
		Tags:     []string{"family"},
		Company:  "Acme",
		Birthday: &birthday,
	}
	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		_, err := tx.Contacts().Set(ctx, c)
		return err
	}))
	SeedContact(t, store, owner.UserID, "adam")
	SeedContact(t, store, other.UserID, "Not mine")

	err := store.View(ctx, func(tx types.Tx) error {
		got, err := tx.Contacts().Get(ctx, c.ContactID)
		require.NoError(t, err)
		assert.Equal(t, "Zoe", got.Name)
		assert.Equal(t, []string{"zoe@example.com"}, got.Emails)
		assert.Equal(t, []string{"+1 555 0100", "+1 555 0101"}, got.Phones)
		assert.Equal(t, []string{"family"}, got.Tags)
		require.NotNil(t, got.Birthday)
		assert.True(t, birthday.Equal(*got.Birthday))
		assert.Nil(t, got.Anniversary)
		assert.Nil(t, got.LastContactedAt)

		list, err := tx.Contacts().FetchByOwner(ctx, owner.UserID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "adam", list[0].Name, "ordered by name ignoring case")
		assert.Equal(t, "Zoe", list[1].Name)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		return tx.Contacts().Delete(ctx, c.ContactID)
	}))
	err = store.Update(ctx, func(tx types.Tx) error {
		return tx.Contacts().Delete(ctx, c.ContactID)
	})
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = store.Update(ctx, func(tx types.Tx) error {
		_, err := tx.Contacts().Set(ctx, &types.Contact{OwnerID: owner.UserID, Name: " "})
		return err
	})
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func testMeetings(t *testing.T, store types.Store) {
	ctx := context.Background()
	owner := SeedUser(t, store, "Owner", "owner@example.com")
	c := SeedContact(t, store, owner.UserID, "Zoe")

	older := &types.Meeting{ContactID: c.ContactID, UserID: owner.UserID, MeetingDate: Date(2026, time.January, 5), Medium: types.MediumEmail}
	newer := &types.Meeting{ContactID: c.ContactID, UserID: owner.UserID, MeetingDate: Date(2026, time.February, 5), Medium: types.MediumSMS}
	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		for _, m := range []*types.Meeting{older, newer} {
			if _, err := tx.Meetings().Set(ctx, m); err != nil {
				return err
			}
		}
		return nil
	}))

	err := store.View(ctx, func(tx types.Tx) error {
		list, err := tx.Meetings().FetchByContact(ctx, c.ContactID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.MeetingID, list[0].MeetingID)
		assert.Equal(t, owner.UserID, list[0].CreatedBy)

		mine, err := tx.Meetings().FetchByUser(ctx, owner.UserID)
		require.NoError(t, err)
		assert.Len(t, mine, 2)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		n, err := tx.Meetings().DeleteByContact(ctx, c.ContactID)
		assert.Equal(t, 2, n)
		return err
	}))
}

func testReminders(t *testing.T, store types.Store) {
	ctx := context.Background()
	owner := SeedUser(t, store, "Owner", "owner@example.com")
	c := SeedContact(t, store, owner.UserID, "Zoe")
	m := &types.Meeting{ContactID: c.ContactID, UserID: owner.UserID, MeetingDate: Date(2026, time.March, 1), Medium: types.MediumOther}

	late := &types.Reminder{UserID: owner.UserID, ContactID: c.ContactID, Kind: types.ReminderBirthday, ScheduledAt: Date(2026, time.June, 1), Message: "Birthday: Zoe"}
	early := &types.Reminder{UserID: owner.UserID, ContactID: c.ContactID, Kind: types.ReminderFollowUp, ScheduledAt: Date(2026, time.April, 1), Message: "Follow up with Zoe"}
	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		if _, err := tx.Meetings().Set(ctx, m); err != nil {
			return err
		}
		early.MeetingID = m.MeetingID
		for _, r := range []*types.Reminder{late, early} {
			if _, err := tx.Reminders().Set(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		late.Dismiss()
		_, err := tx.Reminders().Set(ctx, late)
		return err
	}))

	err := store.View(ctx, func(tx types.Tx) error {
		pending, err := tx.Reminders().FetchByUser(ctx, owner.UserID, types.ReminderPending)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, early.ReminderID, pending[0].ReminderID)
		assert.Equal(t, m.MeetingID, pending[0].MeetingID)

		all, err := tx.Reminders().FetchByUser(ctx, owner.UserID, "")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, early.ReminderID, all[0].ReminderID, "ordered by scheduled time")

		got, err := tx.Reminders().Get(ctx, late.ReminderID)
		require.NoError(t, err)
		assert.Equal(t, types.ReminderDismissed, got.Status)
		assert.Empty(t, got.MeetingID)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		n, err := tx.Reminders().DeleteByMeeting(ctx, m.MeetingID)
		assert.Equal(t, 1, n)
		if err != nil {
			return err
		}
		n, err = tx.Reminders().DeleteByContact(ctx, c.ContactID)
		assert.Equal(t, 1, n)
		return err
	}))
}

func testShares(t *testing.T, store types.Store) {
	ctx := context.Background()
	now := Date(2026, time.May, 1)
	owner := SeedUser(t, store, "Owner", "owner@example.com")
	recipient := SeedUser(t, store, "Recipient", "recipient@example.com")
	active := SeedContact(t, store, owner.UserID, "Active")
	lapsed := SeedContact(t, store, owner.UserID, "Lapsed")
	boundary := SeedContact(t, store, owner.UserID, "Boundary")

	s1 := SeedShare(t, store, active, recipient.UserID, types.PermissionView, Ptr(now.Add(time.Hour)))
	s2 := SeedShare(t, store, lapsed, recipient.UserID, types.PermissionViewAdd, Ptr(now.Add(-time.Hour)))
	s3 := SeedShare(t, store, boundary, recipient.UserID, types.PermissionView, Ptr(now))

	err := store.Update(ctx, func(tx types.Tx) error {
		_, err := tx.Shares().Set(ctx, &types.Share{
			ContactID: lapsed.ContactID, OwnerUserID: owner.UserID, SharedWithUserID: recipient.UserID,
		})
		return err
	})
	assert.ErrorIs(t, err, types.ErrDuplicateShare, "expired grant still blocks a second row")

	err = store.View(ctx, func(tx types.Tx) error {
		got, err := tx.Shares().GetByContactAndRecipient(ctx, lapsed.ContactID, recipient.UserID)
		require.NoError(t, err)
		assert.Equal(t, s2.ShareID, got.ShareID)
		assert.Equal(t, types.PermissionViewAdd, got.Permission)

		ok, err := tx.Shares().ExistsByContactAndRecipient(ctx, active.ContactID, recipient.UserID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = tx.Shares().ExistsByContactAndRecipient(ctx, active.ContactID, owner.UserID)
		require.NoError(t, err)
		assert.False(t, ok)

		activeShares, err := tx.Shares().FetchActiveByRecipient(ctx, recipient.UserID, now)
		require.NoError(t, err)
		ids := make([]string, 0, len(activeShares))
		for _, s := range activeShares {
			ids = append(ids, s.ShareID)
		}
		assert.ElementsMatch(t, []string{s1.ShareID, s3.ShareID}, ids, "a grant expiring exactly now is still active")

		activeShares, err = tx.Shares().FetchActiveByRecipient(ctx, recipient.UserID, now.Add(time.Nanosecond))
		require.NoError(t, err)
		require.Len(t, activeShares, 1)
		assert.Equal(t, s1.ShareID, activeShares[0].ShareID)

		byOwner, err := tx.Shares().FetchByOwner(ctx, owner.UserID)
		require.NoError(t, err)
		assert.Len(t, byOwner, 3)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		s1.Permission = types.PermissionViewAdd
		s1.ExpiresAt = nil
		s1.Note = "updated"
		_, err := tx.Shares().Set(ctx, s1)
		return err
	}))
	err = store.View(ctx, func(tx types.Tx) error {
		got, err := tx.Shares().Get(ctx, s1.ShareID)
		require.NoError(t, err)
		assert.Equal(t, types.PermissionViewAdd, got.Permission)
		assert.Nil(t, got.ExpiresAt)
		assert.Equal(t, "updated", got.Note)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(tx types.Tx) error {
		n, err := tx.Shares().DeleteByContact(ctx, lapsed.ContactID)
		assert.Equal(t, 1, n)
		if err != nil {
			return err
		}
		return tx.Shares().Delete(ctx, s1.ShareID)
	}))
	err = store.Update(ctx, func(tx types.Tx) error {
		return tx.Shares().Delete(ctx, s1.ShareID)
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func testRollback(t *testing.T, store types.Store) {
	ctx := context.Background()
	owner := SeedUser(t, store, "Owner", "owner@example.com")

	var contactID string
	err := store.Update(ctx, func(tx types.Tx) error {
		c := &types.Contact{OwnerID: owner.UserID, Name: "Ghost"}
		if _, err := tx.Contacts().Set(ctx, c); err != nil {
			return err
		}
		contactID = c.ContactID
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	err = store.View(ctx, func(tx types.Tx) error {
		_, err := tx.Contacts().Get(ctx, contactID)
		return err
	})
	assert.ErrorIs(t, err, types.ErrNotFound)
}
