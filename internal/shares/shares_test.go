package shares_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/internal/access"
	"github.com/mesh-intelligence/rapport/internal/logger"
	"github.com/mesh-intelligence/rapport/internal/shares"
	"github.com/mesh-intelligence/rapport/internal/storetest"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

var now = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   types.Store
	manager *shares.Manager
	current time.Time
	owner   *types.User
	friend  *types.User
	other   *types.User
	contact *types.Contact
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{store: storetest.NewSQLiteStore(t), current: now}
	f.manager = shares.NewManager(logger.Discard(), f.store, func() time.Time { return f.current })
	f.owner = storetest.SeedUser(t, f.store, "Olivia", "olivia@example.com")
	f.friend = storetest.SeedUser(t, f.store, "Frank", "frank@example.com")
	f.other = storetest.SeedUser(t, f.store, "Oscar", "oscar@example.com")
	f.contact = storetest.SeedContact(t, f.store, f.owner.UserID, "Maria")
	return f
}

func TestManager_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	view, err := f.manager.Create(ctx, f.owner.UserID, shares.CreateRequest{
		ContactID:      f.contact.ContactID,
		RecipientEmail: "FRANK@example.com",
		Note:           "for the trip",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, view.ShareID)
	assert.Equal(t, types.PermissionView, view.Permission, "permission defaults to VIEW")
	assert.Equal(t, f.friend.UserID, view.SharedWithUserID)
	assert.Equal(t, f.owner.UserID, view.OwnerUserID)
	assert.Equal(t, "Maria", view.ContactName)
	assert.Equal(t, "Olivia", view.OwnerName)
	assert.Equal(t, "olivia@example.com", view.OwnerEmail)
	assert.Equal(t, "Frank", view.RecipientName)
	assert.Equal(t, "frank@example.com", view.RecipientEmail)
	assert.Equal(t, "for the trip", view.Note)
	assert.Nil(t, view.ExpiresAt)
	assert.True(t, view.Active)
	assert.True(t, now.Equal(view.CreatedAt))
}

func TestManager_CreateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.manager.Create(ctx, f.owner.UserID, shares.CreateRequest{
		ContactID:      f.contact.ContactID,
		RecipientEmail: f.other.Email,
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		caller  string
		req     shares.CreateRequest
		wantErr error
	}{
		{
			name:    "missing contact",
			caller:  f.owner.UserID,
			req:     shares.CreateRequest{ContactID: "018f0000-0000-7000-8000-000000000000", RecipientEmail: f.friend.Email},
			wantErr: types.ErrNotFound,
		},
		{
			name:    "malformed contact id",
			caller:  f.owner.UserID,
			req:     shares.CreateRequest{ContactID: "nope", RecipientEmail: f.friend.Email},
			wantErr: types.ErrNotFound,
		},
		{
			name:    "caller is not the owner",
			caller:  f.friend.UserID,
			req:     shares.CreateRequest{ContactID: f.contact.ContactID, RecipientEmail: f.other.Email},
			wantErr: types.ErrForbidden,
		},
		{
			name:    "unknown recipient",
			caller:  f.owner.UserID,
			req:     shares.CreateRequest{ContactID: f.contact.ContactID, RecipientEmail: "nobody@example.com"},
			wantErr: types.ErrRecipientNotFound,
		},
		{
			name:    "self share",
			caller:  f.owner.UserID,
			req:     shares.CreateRequest{ContactID: f.contact.ContactID, RecipientEmail: f.owner.Email},
			wantErr: types.ErrSelfShare,
		},
		{
			name:    "duplicate",
			caller:  f.owner.UserID,
			req:     shares.CreateRequest{ContactID: f.contact.ContactID, RecipientEmail: f.other.Email},
			wantErr: types.ErrDuplicateShare,
		},
		{
			name:    "invalid permission",
			caller:  f.owner.UserID,
			req:     shares.CreateRequest{ContactID: f.contact.ContactID, RecipientEmail: f.friend.Email, Permission: "EDIT"},
			wantErr: types.ErrInvalidPermission,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.Create(ctx, tt.caller, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestManager_CreateDuplicateOfExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storetest.SeedShare(t, f.store, f.contact, f.friend.UserID, types.PermissionView, storetest.Ptr(now.Add(-time.Hour)))

	_, err := f.manager.Create(ctx, f.owner.UserID, shares.CreateRequest{
		ContactID:      f.contact.ContactID,
		RecipientEmail: f.friend.Email,
	})
	assert.ErrorIs(t, err, types.ErrDuplicateShare)
}

func TestManager_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	expiry := now.Add(48 * time.Hour)
	created, err := f.manager.Create(ctx, f.owner.UserID, shares.CreateRequest{
		ContactID:      f.contact.ContactID,
		RecipientEmail: f.friend.Email,
		ExpiresAt:      &expiry,
		Note:           "initial",
	})
	require.NoError(t, err)

	t.Run("permission only", func(t *testing.T) {
		view, err := f.manager.Update(ctx, f.owner.UserID, created.ShareID, shares.UpdateRequest{
			Permission: storetest.Ptr("view_add"),
		})
		require.NoError(t, err)
		assert.Equal(t, types.PermissionViewAdd, view.Permission)
		require.NotNil(t, view.ExpiresAt)
		assert.True(t, expiry.Equal(*view.ExpiresAt))
		assert.Equal(t, "initial", view.Note)
	})

	t.Run("clear expiry and note", func(t *testing.T) {
		view, err := f.manager.Update(ctx, f.owner.UserID, created.ShareID, shares.UpdateRequest{
			ClearExpiry: true,
			ExpiresAt:   storetest.Ptr(now.Add(time.Hour)),
			Note:        storetest.Ptr(""),
		})
		require.NoError(t, err)
		assert.Nil(t, view.ExpiresAt)
		assert.Empty(t, view.Note)
		assert.Equal(t, types.PermissionViewAdd, view.Permission)
	})

	t.Run("recipient cannot update", func(t *testing.T) {
		_, err := f.manager.Update(ctx, f.friend.UserID, created.ShareID, shares.UpdateRequest{
			Permission: storetest.Ptr(types.PermissionView),
		})
		assert.ErrorIs(t, err, types.ErrForbidden)
	})

	t.Run("invalid permission", func(t *testing.T) {
		_, err := f.manager.Update(ctx, f.owner.UserID, created.ShareID, shares.UpdateRequest{
			Permission: storetest.Ptr("ADMIN"),
		})
		assert.ErrorIs(t, err, types.ErrInvalidPermission)
	})

	t.Run("missing share", func(t *testing.T) {
		_, err := f.manager.Update(ctx, f.owner.UserID, "018f0000-0000-7000-8000-000000000000", shares.UpdateRequest{})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestManager_Revoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.manager.Create(ctx, f.owner.UserID, shares.CreateRequest{
		ContactID:      f.contact.ContactID,
		RecipientEmail: f.friend.Email,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.manager.Revoke(ctx, f.friend.UserID, created.ShareID), types.ErrForbidden)
	require.NoError(t, f.manager.Revoke(ctx, f.owner.UserID, created.ShareID))
	assert.ErrorIs(t, f.manager.Revoke(ctx, f.owner.UserID, created.ShareID), types.ErrNotFound)

	_, err = f.manager.SharedContact(ctx, f.friend.UserID, f.contact.ContactID)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	// The pair is free again once revoked.
	_, err = f.manager.Create(ctx, f.owner.UserID, shares.CreateRequest{
		ContactID:      f.contact.ContactID,
		RecipientEmail: f.friend.Email,
	})
	assert.NoError(t, err)
}

func TestManager_Listings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	second := storetest.SeedContact(t, f.store, f.owner.UserID, "Bruno")

	_, err := f.manager.Create(ctx, f.owner.UserID, shares.CreateRequest{
		ContactID:      f.contact.ContactID,
		RecipientEmail: f.friend.Email,
	})
	require.NoError(t, err)
	_, err = f.manager.Create(ctx, f.owner.UserID, shares.CreateRequest{
		ContactID:      second.ContactID,
		RecipientEmail: f.friend.Email,
		ExpiresAt:      storetest.Ptr(now.Add(time.Hour)),
	})
	require.NoError(t, err)

	byMe, err := f.manager.ListSharedByMe(ctx, f.owner.UserID)
	require.NoError(t, err)
	assert.Len(t, byMe, 2)

	withMe, err := f.manager.ListSharedWithMe(ctx, f.friend.UserID)
	require.NoError(t, err)
	assert.Len(t, withMe, 2)

	f.current = now.Add(time.Hour)

	withMe, err = f.manager.ListSharedWithMe(ctx, f.friend.UserID)
	require.NoError(t, err)
	assert.Len(t, withMe, 2, "a share expiring exactly now is still listed")

	f.current = now.Add(time.Hour + time.Second)

	withMe, err = f.manager.ListSharedWithMe(ctx, f.friend.UserID)
	require.NoError(t, err)
	require.Len(t, withMe, 1, "a lapsed share is no longer listed")
	assert.Equal(t, "Maria", withMe[0].ContactName)

	byMe, err = f.manager.ListSharedByMe(ctx, f.owner.UserID)
	require.NoError(t, err)
	require.Len(t, byMe, 2, "the owner still sees expired grants")
	active := map[string]bool{}
	for _, v := range byMe {
		active[v.ContactName] = v.Active
	}
	assert.Equal(t, map[string]bool{"Maria": true, "Bruno": false}, active)

	empty, err := f.manager.ListSharedWithMe(ctx, f.other.UserID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestManager_SharedContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	storetest.SeedShare(t, f.store, f.contact, f.friend.UserID, types.PermissionViewAdd, storetest.Ptr(now.Add(time.Minute)))

	a, err := f.manager.SharedContact(ctx, f.friend.UserID, f.contact.ContactID)
	require.NoError(t, err)
	assert.Equal(t, access.LevelShared, a.Level)
	assert.Equal(t, types.PermissionViewAdd, a.Permission)
	assert.Equal(t, "Maria", a.Contact.Name)

	a, err = f.manager.SharedContact(ctx, f.owner.UserID, f.contact.ContactID)
	require.NoError(t, err)
	assert.True(t, a.IsOwner())

	_, err = f.manager.SharedContact(ctx, f.other.UserID, f.contact.ContactID)
	assert.ErrorIs(t, err, types.ErrAccessDenied)

	f.current = now.Add(time.Minute)
	_, err = f.manager.SharedContact(ctx, f.friend.UserID, f.contact.ContactID)
	assert.ErrorIs(t, err, types.ErrShareExpired)
}
