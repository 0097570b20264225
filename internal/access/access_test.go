package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/internal/access"
	"github.com/mesh-intelligence/rapport/internal/storetest"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

func TestAccessCan(t *testing.T) {
	owner := access.Access{Level: access.LevelOwner}
	view := access.Access{Level: access.LevelShared, Permission: types.PermissionView}
	viewAdd := access.Access{Level: access.LevelShared, Permission: types.PermissionViewAdd}
	none := access.Access{}

	tests := []struct {
		name   string
		access access.Access
		want   map[access.Capability]bool
	}{
		{"owner", owner, map[access.Capability]bool{
			access.CapRead: true, access.CapAddMeeting: true, access.CapEdit: true, access.CapDelete: true, access.CapShare: true,
		}},
		{"view", view, map[access.Capability]bool{
			access.CapRead: true, access.CapAddMeeting: false, access.CapEdit: false, access.CapDelete: false, access.CapShare: false,
		}},
		{"view_add", viewAdd, map[access.Capability]bool{
			access.CapRead: true, access.CapAddMeeting: true, access.CapEdit: false, access.CapDelete: false, access.CapShare: false,
		}},
		{"none", none, map[access.Capability]bool{
			access.CapRead: false, access.CapAddMeeting: false, access.CapEdit: false, access.CapDelete: false, access.CapShare: false,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for c, want := range tt.want {
				assert.Equal(t, want, tt.access.Can(c), c.String())
				if want {
					assert.NoError(t, tt.access.Require(c))
				} else {
					assert.ErrorIs(t, tt.access.Require(c), types.ErrForbidden)
				}
			}
		})
	}

	assert.True(t, viewAdd.CanRead())
	assert.True(t, viewAdd.CanAddMeeting())
	assert.False(t, viewAdd.CanEdit())
	assert.False(t, viewAdd.CanDelete())
	assert.False(t, viewAdd.CanShare())
	assert.True(t, owner.IsOwner())
}

func TestResolve(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := storetest.NewSQLiteStore(t)

	owner := storetest.SeedUser(t, store, "Owner", "owner@example.com")
	viewer := storetest.SeedUser(t, store, "Viewer", "viewer@example.com")
	adder := storetest.SeedUser(t, store, "Adder", "adder@example.com")
	lapsed := storetest.SeedUser(t, store, "Lapsed", "lapsed@example.com")
	future := storetest.SeedUser(t, store, "Future", "future@example.com")
	boundary := storetest.SeedUser(t, store, "Boundary", "boundary@example.com")
	stranger := storetest.SeedUser(t, store, "Stranger", "stranger@example.com")

	contact := storetest.SeedContact(t, store, owner.UserID, "Zoe")
	storetest.SeedShare(t, store, contact, viewer.UserID, types.PermissionView, nil)
	storetest.SeedShare(t, store, contact, adder.UserID, types.PermissionViewAdd, nil)
	storetest.SeedShare(t, store, contact, lapsed.UserID, types.PermissionViewAdd, storetest.Ptr(now.Add(-time.Second)))
	storetest.SeedShare(t, store, contact, future.UserID, types.PermissionView, storetest.Ptr(now.Add(time.Second)))
	storetest.SeedShare(t, store, contact, boundary.UserID, types.PermissionView, storetest.Ptr(now))

	tests := []struct {
		name      string
		userID    string
		contactID string
		wantLevel access.Level
		wantPerm  string
		wantErr   error
	}{
		{"owner", owner.UserID, contact.ContactID, access.LevelOwner, "", nil},
		{"view recipient", viewer.UserID, contact.ContactID, access.LevelShared, types.PermissionView, nil},
		{"view_add recipient", adder.UserID, contact.ContactID, access.LevelShared, types.PermissionViewAdd, nil},
		{"share not yet expired", future.UserID, contact.ContactID, access.LevelShared, types.PermissionView, nil},
		{"share expiring exactly now", boundary.UserID, contact.ContactID, access.LevelShared, types.PermissionView, nil},
		{"expired share", lapsed.UserID, contact.ContactID, access.LevelNone, "", types.ErrShareExpired},
		{"no share", stranger.UserID, contact.ContactID, access.LevelNone, "", types.ErrAccessDenied},
		{"missing contact", owner.UserID, "0195f1e0-0000-7000-8000-00000000dead", access.LevelNone, "", types.ErrNotFound},
		{"empty contact id", owner.UserID, "", access.LevelNone, "", types.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got access.Access
			err := store.View(context.Background(), func(tx types.Tx) error {
				var err error
				got, err = access.Resolve(context.Background(), tx, tt.userID, tt.contactID, now)
				return err
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantPerm, got.Permission)
			require.NotNil(t, got.Contact)
			assert.Equal(t, contact.ContactID, got.Contact.ContactID)
		})
	}
}

func TestAuthorize(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	store := storetest.NewSQLiteStore(t)
	owner := storetest.SeedUser(t, store, "Owner", "owner@example.com")
	viewer := storetest.SeedUser(t, store, "Viewer", "viewer@example.com")
	stranger := storetest.SeedUser(t, store, "Stranger", "stranger@example.com")
	contact := storetest.SeedContact(t, store, owner.UserID, "Zoe")
	storetest.SeedShare(t, store, contact, viewer.UserID, types.PermissionView, nil)

	authorize := func(userID string, c access.Capability) error {
		return store.View(context.Background(), func(tx types.Tx) error {
			_, err := access.Authorize(context.Background(), tx, userID, contact.ContactID, now, c)
			return err
		})
	}

	assert.NoError(t, authorize(owner.UserID, access.CapDelete))
	assert.NoError(t, authorize(viewer.UserID, access.CapRead))
	assert.ErrorIs(t, authorize(viewer.UserID, access.CapAddMeeting), types.ErrForbidden)
	assert.ErrorIs(t, authorize(viewer.UserID, access.CapDelete), types.ErrForbidden)
	assert.ErrorIs(t, authorize(stranger.UserID, access.CapDelete), types.ErrAccessDenied)
}

func TestEvaluatorUsesClock(t *testing.T) {
	store := storetest.NewSQLiteStore(t)
	owner := storetest.SeedUser(t, store, "Owner", "owner@example.com")
	viewer := storetest.SeedUser(t, store, "Viewer", "viewer@example.com")
	contact := storetest.SeedContact(t, store, owner.UserID, "Zoe")
	expiry := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	storetest.SeedShare(t, store, contact, viewer.UserID, types.PermissionView, &expiry)

	before := access.NewEvaluator(store, storetest.FixedClock(expiry.Add(-time.Hour)))
	a, err := before.Resolve(context.Background(), viewer.UserID, contact.ContactID)
	require.NoError(t, err)
	assert.Equal(t, access.LevelShared, a.Level)

	after := access.NewEvaluator(store, storetest.FixedClock(expiry.Add(time.Hour)))
	_, err = after.Resolve(context.Background(), viewer.UserID, contact.ContactID)
	assert.ErrorIs(t, err, types.ErrShareExpired)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "OWNER", access.LevelOwner.String())
	assert.Equal(t, "SHARED", access.LevelShared.String())
	assert.Equal(t, "NONE", access.LevelNone.String())
}
