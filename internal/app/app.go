// Package app assembles the rapport services. The CLI builds them directly
// with NewServices; rapport serve builds them through the fx graph in
// Options.
package app

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/rapport/internal/accounts"
	"github.com/mesh-intelligence/rapport/internal/cascade"
	"github.com/mesh-intelligence/rapport/internal/contacts"
	"github.com/mesh-intelligence/rapport/internal/dashboard"
	"github.com/mesh-intelligence/rapport/internal/meetings"
	"github.com/mesh-intelligence/rapport/internal/postgres"
	"github.com/mesh-intelligence/rapport/internal/reminders"
	"github.com/mesh-intelligence/rapport/internal/shares"
	"github.com/mesh-intelligence/rapport/pkg/sqlite"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// OpenStore creates the backend named by cfg.Backend and attaches it.
// The caller must Detach the returned store.
func OpenStore(log *slog.Logger, cfg types.Config) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var store types.Store
	switch cfg.Backend {
	case types.BackendPostgres:
		store = postgres.NewBackend(log)
	default:
		store = sqlite.NewBackend()
	}
	if err := store.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s store: %w", cfg.Backend, err)
	}
	return store, nil
}

// Services is the full set of domain services over one store.
type Services struct {
	Store       types.Store
	Accounts    *accounts.Service
	Contacts    *contacts.Service
	Meetings    *meetings.Service
	Reminders   *reminders.Scheduler
	Shares      *shares.Manager
	Coordinator *cascade.Coordinator
	Dashboard   *dashboard.Service
}

// NewServices wires every service to store and clock.
func NewServices(log *slog.Logger, store types.Store, clock types.Clock) *Services {
	scheduler := reminders.NewScheduler(log, store, clock)
	return &Services{
		Store:       store,
		Accounts:    accounts.NewService(log, store, clock),
		Contacts:    contacts.NewService(log, store, clock),
		Meetings:    meetings.NewService(log, store, clock),
		Reminders:   scheduler,
		Shares:      shares.NewManager(log, store, clock),
		Coordinator: cascade.NewCoordinator(log, store, scheduler, clock),
		Dashboard:   dashboard.NewService(log, store, clock),
	}
}
