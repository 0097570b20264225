package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/internal/snapshot"
	"github.com/mesh-intelligence/rapport/internal/storetest"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := storetest.NewSQLiteStore(t)

	owner := storetest.SeedUser(t, src, "Owner", "owner@example.com")
	friend := storetest.SeedUser(t, src, "Friend", "friend@example.com")
	contact := storetest.SeedContact(t, src, owner.UserID, "Zoe")
	storetest.SeedShare(t, src, contact, friend.UserID, types.PermissionViewAdd, storetest.Ptr(storetest.Date(2027, time.January, 1)))

	meeting := &types.Meeting{
		ContactID:    contact.ContactID,
		UserID:       owner.UserID,
		CreatedBy:    friend.UserID,
		MeetingDate:  storetest.Date(2026, time.March, 3),
		Medium:       types.MediumInPerson,
		FollowupDate: storetest.Ptr(storetest.Date(2026, time.March, 10)),
	}
	require.NoError(t, src.Update(ctx, func(tx types.Tx) error {
		if _, err := tx.Meetings().Set(ctx, meeting); err != nil {
			return err
		}
		_, err := tx.Reminders().Set(ctx, &types.Reminder{
			UserID:      owner.UserID,
			ContactID:   contact.ContactID,
			MeetingID:   meeting.MeetingID,
			Kind:        types.ReminderFollowUp,
			ScheduledAt: *meeting.FollowupDate,
			Message:     "Follow up with Zoe",
		})
		return err
	}))

	dir := filepath.Join(t.TempDir(), "snap")
	exported, err := snapshot.Export(ctx, src, dir)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Counts{Users: 2, Contacts: 1, Meetings: 1, Reminders: 1, Shares: 1}, exported)

	for _, name := range []string{snapshot.UsersFile, snapshot.ContactsFile, snapshot.MeetingsFile, snapshot.RemindersFile, snapshot.SharesFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	dst := storetest.NewSQLiteStore(t)
	imported, err := snapshot.Import(ctx, dst, dir)
	require.NoError(t, err)
	assert.Equal(t, exported, imported)

	err = dst.View(ctx, func(tx types.Tx) error {
		u, err := tx.Users().GetByEmail(ctx, "friend@example.com")
		require.NoError(t, err)
		assert.Equal(t, friend.UserID, u.UserID)

		m, err := tx.Meetings().Get(ctx, meeting.MeetingID)
		require.NoError(t, err)
		assert.Equal(t, friend.UserID, m.CreatedBy)

		s, err := tx.Shares().GetByContactAndRecipient(ctx, contact.ContactID, friend.UserID)
		require.NoError(t, err)
		assert.Equal(t, types.PermissionViewAdd, s.Permission)
		require.NotNil(t, s.ExpiresAt)

		reminders, err := tx.Reminders().FetchByContact(ctx, contact.ContactID)
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, meeting.MeetingID, reminders[0].MeetingID)
		return nil
	})
	require.NoError(t, err)

	again, err := snapshot.Import(ctx, dst, dir)
	require.NoError(t, err, "importing twice upserts")
	assert.Equal(t, exported, again)
}

func TestImportFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	users := `{"user_id":"0195f1e0-0000-7000-8000-000000000001","name":"Ada","email":"ada@example.com","created_at":"2026-01-01T00:00:00Z"}
{"user_id":"0195f1e0-0000-7000-8000-000000000002","name":"","email":"bad@example.com","created_at":"2026-01-01T00:00:00Z"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshot.UsersFile), []byte(users), 0o644))

	store := storetest.NewSQLiteStore(t)
	_, err := snapshot.Import(ctx, store, dir)
	require.ErrorIs(t, err, types.ErrInvalidName)

	err = store.View(ctx, func(tx types.Tx) error {
		all, err := tx.Users().Fetch(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
		return nil
	})
	require.NoError(t, err)
}
