package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/mesh-intelligence/rapport/internal/app"
	"github.com/mesh-intelligence/rapport/internal/config"
	"github.com/mesh-intelligence/rapport/internal/logger"
	"github.com/mesh-intelligence/rapport/internal/storetest"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

func TestOpenStore(t *testing.T) {
	store, err := app.OpenStore(logger.Discard(), types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	defer store.Detach()

	err = store.View(context.Background(), func(tx types.Tx) error {
		_, err := tx.Users().Fetch(context.Background())
		return err
	})
	assert.NoError(t, err)
}

func TestOpenStoreRejectsConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{DataDir: t.TempDir()}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "mysql"}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.OpenStore(logger.Discard(), tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewServices(t *testing.T) {
	store := storetest.NewSQLiteStore(t)
	svc := app.NewServices(logger.Discard(), store, storetest.FixedClock(storetest.Date(2025, 3, 1)))
	ctx := context.Background()

	owner, err := svc.Accounts.Register(ctx, "Ada", "ada@example.com", "secret123")
	require.NoError(t, err)
	c, err := svc.Coordinator.CreateContact(ctx, owner.UserID, &types.Contact{
		Name:     "Grace",
		Birthday: storetest.Ptr(storetest.Date(1990, 3, 10)),
	})
	require.NoError(t, err)

	pending, err := svc.Reminders.ListPending(ctx, owner.UserID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, c.ContactID, pending[0].ContactID)
}

func TestOptionsGraph(t *testing.T) {
	cfg, err := config.Defaults()
	require.NoError(t, err)
	cfg.Auth.JWTSecret = "test-secret"
	storeCfg := cfg.Store(t.TempDir())

	assert.NoError(t, fx.ValidateApp(app.Options(logger.Discard(), cfg, storeCfg)))
}

func TestServeRequiresSecret(t *testing.T) {
	cfg, err := config.Defaults()
	require.NoError(t, err)
	cfg.Auth.JWTSecret = " "

	err = app.Serve(logger.Discard(), cfg, cfg.Store(t.TempDir()))
	assert.ErrorIs(t, err, app.ErrMissingJWTSecret)
}
