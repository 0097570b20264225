package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/internal/storetest"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// newTestBackend attaches to TEST_POSTGRES_DSN and empties every table.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	b := NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{
		Backend:  types.BackendPostgres,
		Postgres: types.PostgresConfig{URL: dsn},
	}))
	t.Cleanup(func() { _ = b.Detach() })

	_, err := b.pool.Exec(context.Background(), "TRUNCATE shares, reminders, meetings, contacts, users")
	require.NoError(t, err)
	return b
}

func TestBackend_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store {
		return newTestBackend(t)
	})
}

func TestBackend_AttachTwice(t *testing.T) {
	b := newTestBackend(t)
	err := b.Attach(types.Config{Backend: types.BackendPostgres, Postgres: types.PostgresConfig{URL: os.Getenv("TEST_POSTGRES_DSN")}})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_DetachedStore(t *testing.T) {
	b := NewBackend(nil)
	err := b.View(context.Background(), func(tx types.Tx) error { return nil })
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.NoError(t, b.Detach())
}

func TestBackend_RejectsSQLiteConfig(t *testing.T) {
	err := NewBackend(nil).Attach(types.Config{Backend: types.BackendSQLite})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}
