package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/internal/accounts"
	"github.com/mesh-intelligence/rapport/internal/logger"
	"github.com/mesh-intelligence/rapport/internal/storetest"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

var now = time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) *accounts.Service {
	svc := accounts.NewService(logger.Discard(), storetest.NewSQLiteStore(t), storetest.FixedClock(now))
	svc.UseMinCost()
	return svc
}

func TestService_Register(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, " Ada ", "Ada@Example.COM ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, u.UserID)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.True(t, now.Equal(u.CreatedAt))

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"taken email", "Other", "ADA@example.com", "secret1", types.ErrEmailTaken},
		{"missing name", "", "x@example.com", "secret1", types.ErrInvalidName},
		{"bad email", "X", "not-an-email", "secret1", types.ErrInvalidEmail},
		{"short password", "X", "x@example.com", "12345", types.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Login(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	registered, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "Local", "local@example.com", "")
	require.NoError(t, err)

	u, err := svc.Login(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, u.UserID)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ada@example.com", "secret2"},
		{"unknown email", "bob@example.com", "secret1"},
		{"empty password", "ada@example.com", ""},
		{"no password set", "local@example.com", "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, types.ErrInvalidCredentials)
		})
	}
}

func TestService_ChangePassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, u.UserID, "wrong", "secret2"), types.ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, u.UserID, "secret1", "secret2"))

	_, err = svc.Login(ctx, "ada@example.com", "secret1")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ada@example.com", "secret2")
	assert.NoError(t, err)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
