package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

var _ types.UserTable = (*usersTable)(nil)

type usersTable struct {
	q querier
}

const userColumns = "user_id, name, email, password_hash, created_at"

func (ut *usersTable) Get(ctx context.Context, id string) (*types.User, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	row := ut.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = ?", id)
	return scanUser(row)
}

func (ut *usersTable) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	email = types.NormalizeEmail(email)
	if email == "" {
		return nil, types.ErrInvalidEmail
	}
	row := ut.q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

func (ut *usersTable) Set(ctx context.Context, u *types.User) (string, error) {
	if u == nil {
		return "", types.ErrInvalidData
	}
	u.Email = types.NormalizeEmail(u.Email)
	if err := u.Validate(); err != nil {
		return "", err
	}
	if u.UserID == "" {
		u.UserID = generateUUID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := ut.q.ExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET name = excluded.name, email = excluded.email, password_hash = excluded.password_hash`,
		u.UserID, u.Name, u.Email, u.PasswordHash, formatTime(u.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", types.ErrEmailTaken
		}
		return "", fmt.Errorf("persisting user: %w", err)
	}
	return u.UserID, nil
}

func (ut *usersTable) Fetch(ctx context.Context) ([]*types.User, error) {
	rows, err := ut.q.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, user_id")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []*types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*types.User, error) {
	var (
		u         types.User
		createdAt string
	)
	if err := s.Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}
