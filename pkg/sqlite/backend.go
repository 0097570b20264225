// Package sqlite exposes the factory for the SQLite rapport store while
// keeping the table implementations internal.
package sqlite

import (
	"github.com/mesh-intelligence/rapport/internal/sqlite"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// NewBackend creates a new SQLite store.
// The store is not attached; call Attach with a Config to open it.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".rapport-db",
//	})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}
