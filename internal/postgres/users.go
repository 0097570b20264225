package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

type usersTable struct {
	q querier
}

const userColumns = "user_id, name, email, password_hash, created_at"

func (ut *usersTable) Get(ctx context.Context, id string) (*types.User, error) {
	pgID, err := lookupID(id)
	if err != nil {
		return nil, err
	}
	return scanUser(ut.q.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = $1", pgID))
}

func (ut *usersTable) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	email = types.NormalizeEmail(email)
	if email == "" {
		return nil, types.ErrInvalidEmail
	}
	return scanUser(ut.q.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
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
		u.CreatedAt = time.Now()
	}
	u.CreatedAt = truncate(u.CreatedAt)
	pgID, err := parseUUID(u.UserID)
	if err != nil {
		return "", err
	}

	_, err = ut.q.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, password_hash = EXCLUDED.password_hash`,
		pgID, u.Name, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return "", types.ErrEmailTaken
		}
		return "", fmt.Errorf("persisting user: %w", err)
	}
	return u.UserID, nil
}

func (ut *usersTable) Fetch(ctx context.Context) ([]*types.User, error) {
	rows, err := ut.q.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, user_id")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	return collect(rows, scanUser)
}

func scanUser(s scanner) (*types.User, error) {
	var (
		u         types.User
		id        pgtype.UUID
		createdAt pgtype.Timestamptz
	)
	if err := s.Scan(&id, &u.Name, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.UserID = toUUIDString(id)
	u.CreatedAt = createdAt.Time.UTC()
	return &u, nil
}
