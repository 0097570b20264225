// Package postgres implements the PostgreSQL storage backend for rapport on
// pgx. The schema is managed by embedded golang-migrate migrations that
// Attach applies before serving.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// connectTimeout bounds pool creation and the initial ping in Attach.
const connectTimeout = 10 * time.Second

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a pgx connection pool.
type Backend struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	attached bool
	pool     *pgxpool.Pool
}

// NewBackend creates a detached PostgreSQL backend. A nil logger uses
// slog.Default.
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger.With(slog.String("store", types.BackendPostgres))}
}

// Attach migrates the database to the latest schema and opens a pool.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendPostgres {
		return fmt.Errorf("postgres backend cannot serve %q: %w", config.Backend, types.ErrBackendUnknown)
	}

	if err := RunMigrate(b.logger, config.Postgres, Migrations(), "up", nil); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, DSN(config.Postgres))
	if err != nil {
		return fmt.Errorf("opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging database: %w", err)
	}

	b.pool = pool
	b.attached = true
	return nil
}

// Detach closes the pool. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.pool.Close()
	b.pool = nil
	b.attached = false
	return nil
}

// Update runs fn in a read-write transaction.
func (b *Backend) Update(ctx context.Context, fn func(tx types.Tx) error) error {
	return b.run(ctx, pgx.TxOptions{}, true, fn)
}

// View runs fn in a read-only transaction.
func (b *Backend) View(ctx context.Context, fn func(tx types.Tx) error) error {
	return b.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, false, fn)
}

func (b *Backend) run(ctx context.Context, opts pgx.TxOptions, commit bool, fn func(tx types.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	pgTx, err := b.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = pgTx.Rollback(ctx) }()

	if err := fn(&txn{q: pgTx}); err != nil {
		return err
	}
	if !commit {
		return nil
	}
	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// querier is the subset of pgx.Tx the tables need.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

type txn struct {
	q querier
}

func (t *txn) Users() types.UserTable         { return &usersTable{q: t.q} }
func (t *txn) Contacts() types.ContactTable   { return &contactsTable{q: t.q} }
func (t *txn) Meetings() types.MeetingTable   { return &meetingsTable{q: t.q} }
func (t *txn) Reminders() types.ReminderTable { return &remindersTable{q: t.q} }
func (t *txn) Shares() types.ShareTable       { return &sharesTable{q: t.q} }

// collect drains rows through scan.
func collect[T any](rows pgx.Rows, scan func(scanner) (*T, error)) ([]*T, error) {
	defer rows.Close()
	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
