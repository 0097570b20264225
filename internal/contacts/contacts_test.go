package contacts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/internal/contacts"
	"github.com/mesh-intelligence/rapport/internal/logger"
	"github.com/mesh-intelligence/rapport/internal/storetest"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

var now = time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)

func TestService_Get(t *testing.T) {
	store := storetest.NewSQLiteStore(t)
	svc := contacts.NewService(logger.Discard(), store, storetest.FixedClock(now))
	owner := storetest.SeedUser(t, store, "Owner", "owner@example.com")
	friend := storetest.SeedUser(t, store, "Friend", "friend@example.com")
	late := storetest.SeedUser(t, store, "Late", "late@example.com")
	stranger := storetest.SeedUser(t, store, "Stranger", "stranger@example.com")
	c := storetest.SeedContact(t, store, owner.UserID, "Maria")
	storetest.SeedShare(t, store, c, friend.UserID, types.PermissionViewAdd, nil)
	storetest.SeedShare(t, store, c, late.UserID, types.PermissionView, storetest.Ptr(now.Add(-time.Minute)))

	tests := []struct {
		name           string
		caller         string
		wantAccess     string
		wantPermission string
		wantErr        error
	}{
		{"owner", owner.UserID, "OWNER", "", nil},
		{"recipient", friend.UserID, "SHARED", types.PermissionViewAdd, nil},
		{"expired", late.UserID, "", "", types.ErrShareExpired},
		{"stranger", stranger.UserID, "", "", types.ErrAccessDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := svc.Get(context.Background(), tt.caller, c.ContactID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Maria", v.Name)
			assert.Equal(t, tt.wantAccess, v.Access)
			assert.Equal(t, tt.wantPermission, v.Permission)
		})
	}

	_, err := svc.Get(context.Background(), owner.UserID, "018f0000-0000-7000-8000-000000000000")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestService_ListAndSearch(t *testing.T) {
	store := storetest.NewSQLiteStore(t)
	svc := contacts.NewService(logger.Discard(), store, storetest.FixedClock(now))
	owner := storetest.SeedUser(t, store, "Owner", "owner@example.com")
	other := storetest.SeedUser(t, store, "Other", "other@example.com")
	storetest.SeedContact(t, store, owner.UserID, "maria lopez")
	storetest.SeedContact(t, store, owner.UserID, "Bruno")
	storetest.SeedContact(t, store, owner.UserID, "Marius")
	storetest.SeedContact(t, store, other.UserID, "Mariana")

	all, err := svc.List(context.Background(), owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bruno", "maria lopez", "Marius"}, names(all))

	tests := []struct {
		query string
		want  []string
	}{
		{"MAR", []string{"maria lopez", "Marius"}},
		{"lopez", []string{"maria lopez"}},
		{"zzz", nil},
		{"  ", []string{"Bruno", "maria lopez", "Marius"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := svc.Search(context.Background(), owner.UserID, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestService_Update(t *testing.T) {
	store := storetest.NewSQLiteStore(t)
	svc := contacts.NewService(logger.Discard(), store, storetest.FixedClock(now))
	owner := storetest.SeedUser(t, store, "Owner", "owner@example.com")
	friend := storetest.SeedUser(t, store, "Friend", "friend@example.com")
	contacted := now.Add(-48 * time.Hour)
	c := &types.Contact{
		OwnerID:         owner.UserID,
		Name:            "Maria",
		Company:         "Acme",
		Tags:            []string{"work"},
		Birthday:        storetest.Ptr(storetest.Date(1990, time.May, 4)),
		LastContactedAt: &contacted,
	}
	require.NoError(t, store.Update(context.Background(), func(tx types.Tx) error {
		_, err := tx.Contacts().Set(context.Background(), c)
		return err
	}))
	storetest.SeedShare(t, store, c, friend.UserID, types.PermissionViewAdd, nil)

	got, err := svc.Update(context.Background(), owner.UserID, c.ContactID, contacts.UpdateRequest{
		Name:          storetest.Ptr("Maria Lopez"),
		Tags:          &[]string{"work", "climbing"},
		ClearBirthday: true,
		Anniversary:   storetest.Ptr(time.Date(2015, time.August, 20, 17, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez", got.Name)
	assert.Equal(t, "Acme", got.Company, "unset fields are kept")
	assert.Equal(t, []string{"work", "climbing"}, got.Tags)
	assert.Nil(t, got.Birthday)
	require.NotNil(t, got.Anniversary)
	assert.True(t, storetest.Date(2015, time.August, 20).Equal(*got.Anniversary))
	assert.Equal(t, owner.UserID, got.OwnerID)
	require.NotNil(t, got.LastContactedAt)
	assert.True(t, contacted.Equal(*got.LastContactedAt))
	assert.True(t, now.Equal(got.UpdatedAt))

	_, err = svc.Update(context.Background(), friend.UserID, c.ContactID, contacts.UpdateRequest{Name: storetest.Ptr("Hijack")})
	assert.ErrorIs(t, err, types.ErrForbidden, "recipients cannot edit")

	_, err = svc.Update(context.Background(), owner.UserID, c.ContactID, contacts.UpdateRequest{Name: storetest.Ptr("")})
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func names(cs []*types.Contact) []string {
	var out []string
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}
