// Package accounts registers users and checks their credentials.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// Service manages users and their password hashes.
type Service struct {
	store  types.Store
	clock  types.Clock
	logger *slog.Logger
	cost   int
}

// NewService creates an accounts service. A nil clock uses time.Now.
func NewService(log *slog.Logger, store types.Store, clock types.Clock) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		clock:  clock,
		logger: log.With(slog.String("service", "accounts")),
		cost:   bcrypt.DefaultCost,
	}
}

// Register creates a user. An empty password creates a user that cannot
// log in, which is how the CLI adds local users; otherwise the password must
// have at least MinPasswordLength characters.
func (s *Service) Register(ctx context.Context, name, email, password string) (*types.User, error) {
	u := &types.User{
		Name:      strings.TrimSpace(name),
		Email:     types.NormalizeEmail(email),
		CreatedAt: s.clock.Now(),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if password != "" {
		hash, err := s.hash(password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	err := s.store.Update(ctx, func(tx types.Tx) error {
		_, err := tx.Users().Set(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", slog.String("user_id", u.UserID))
	return u, nil
}

// Login returns the user whose email and password match. Every mismatch,
// including an unknown email, is ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*types.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, types.ErrInvalidCredentials
	}
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidEmail) {
			return nil, types.ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, types.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, types.ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword replaces the user's password after checking the current
// one. A user without a password may set one with an empty current value.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	hash, err := s.hash(next)
	if err != nil {
		return err
	}
	return s.store.Update(ctx, func(tx types.Tx) error {
		u, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return err
		}
		if u.PasswordHash != "" {
			if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
				return types.ErrInvalidCredentials
			}
		}
		u.PasswordHash = hash
		_, err = tx.Users().Set(ctx, u)
		return err
	})
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, userID string) (*types.User, error) {
	var u *types.User
	err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		u, err = tx.Users().Get(ctx, userID)
		return err
	})
	return u, err
}

// GetByEmail returns a user by email, ignoring case.
func (s *Service) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	var u *types.User
	err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		u, err = tx.Users().GetByEmail(ctx, email)
		return err
	})
	return u, err
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]*types.User, error) {
	var out []*types.User
	err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		out, err = tx.Users().Fetch(ctx)
		return err
	})
	return out, err
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", fmt.Errorf("password must have at least %d characters: %w", MinPasswordLength, types.ErrInvalidData)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
