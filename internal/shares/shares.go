// Package shares manages share grants: creation by the contact's owner,
// partial updates, revocation and the two listings.
package shares

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/rapport/internal/access"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// unknown is displayed for a user or contact that no longer resolves.
const unknown = "Unknown"

// CreateRequest describes a new grant. An empty Permission means VIEW.
type CreateRequest struct {
	ContactID      string     `json:"contact_id"`
	RecipientEmail string     `json:"recipient_email"`
	Permission     string     `json:"permission,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	Note           string     `json:"note,omitempty"`
}

// UpdateRequest changes a grant. Nil fields are left unchanged;
// ClearExpiry removes the expiry and wins over ExpiresAt.
type UpdateRequest struct {
	Permission  *string    `json:"permission,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClearExpiry bool       `json:"clear_expiry,omitempty"`
	Note        *string    `json:"note,omitempty"`
}

// View is a share joined with display names at read time.
type View struct {
	types.Share
	ContactName    string `json:"contact_name"`
	OwnerName      string `json:"owner_name"`
	OwnerEmail     string `json:"owner_email"`
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	Active         bool   `json:"active"`
}

// Manager implements the share lifecycle.
type Manager struct {
	store     types.Store
	clock     types.Clock
	evaluator *access.Evaluator
	logger    *slog.Logger
}

// NewManager creates a Manager. A nil clock uses time.Now.
func NewManager(log *slog.Logger, store types.Store, clock types.Clock) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:     store,
		clock:     clock,
		evaluator: access.NewEvaluator(store, clock),
		logger:    log.With(slog.String("service", "shares")),
	}
}

// Create grants the recipient access to one of the owner's contacts.
//
// Checks run in order: contact exists (ErrNotFound), caller owns it
// (ErrForbidden), recipient exists (ErrRecipientNotFound), recipient is not
// the owner (ErrSelfShare), no grant exists for the pair yet, expired or not
// (ErrDuplicateShare).
func (m *Manager) Create(ctx context.Context, ownerID string, req CreateRequest) (*View, error) {
	permission, err := types.ParsePermission(req.Permission)
	if err != nil {
		return nil, err
	}
	now := m.clock.Now()

	var view *View
	err = m.store.Update(ctx, func(tx types.Tx) error {
		contact, err := getContact(ctx, tx, req.ContactID)
		if err != nil {
			return err
		}
		if contact.OwnerID != ownerID {
			return types.ErrForbidden
		}

		recipient, err := tx.Users().GetByEmail(ctx, req.RecipientEmail)
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidEmail) {
			return types.ErrRecipientNotFound
		}
		if err != nil {
			return err
		}
		if recipient.UserID == ownerID {
			return types.ErrSelfShare
		}

		exists, err := tx.Shares().ExistsByContactAndRecipient(ctx, contact.ContactID, recipient.UserID)
		if err != nil {
			return err
		}
		if exists {
			return types.ErrDuplicateShare
		}

		share := &types.Share{
			ContactID:        contact.ContactID,
			OwnerUserID:      ownerID,
			SharedWithUserID: recipient.UserID,
			Permission:       permission,
			ExpiresAt:        req.ExpiresAt,
			Note:             req.Note,
			CreatedAt:        now,
		}
		if _, err := tx.Shares().Set(ctx, share); err != nil {
			return err
		}
		view, err = newJoiner(ctx, tx, now).view(share)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("share created",
		slog.String("share_id", view.ShareID),
		slog.String("contact_id", view.ContactID),
		slog.String("permission", view.Permission),
	)
	return view, nil
}

// Update applies req to a grant the caller issued. The recipient cannot
// change the grant (ErrForbidden).
func (m *Manager) Update(ctx context.Context, ownerID, shareID string, req UpdateRequest) (*View, error) {
	var permission string
	if req.Permission != nil {
		p, err := types.ParsePermission(*req.Permission)
		if err != nil {
			return nil, err
		}
		permission = p
	}
	now := m.clock.Now()

	var view *View
	err := m.store.Update(ctx, func(tx types.Tx) error {
		share, err := getOwnedShare(ctx, tx, ownerID, shareID)
		if err != nil {
			return err
		}
		if req.Permission != nil {
			share.Permission = permission
		}
		switch {
		case req.ClearExpiry:
			share.ExpiresAt = nil
		case req.ExpiresAt != nil:
			share.ExpiresAt = req.ExpiresAt
		}
		if req.Note != nil {
			share.Note = *req.Note
		}
		if _, err := tx.Shares().Set(ctx, share); err != nil {
			return err
		}
		view, err = newJoiner(ctx, tx, now).view(share)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Revoke deletes a grant the caller issued.
func (m *Manager) Revoke(ctx context.Context, ownerID, shareID string) error {
	err := m.store.Update(ctx, func(tx types.Tx) error {
		if _, err := getOwnedShare(ctx, tx, ownerID, shareID); err != nil {
			return err
		}
		return tx.Shares().Delete(ctx, shareID)
	})
	if err != nil {
		return err
	}
	m.logger.Info("share revoked", slog.String("share_id", shareID))
	return nil
}

// ListSharedByMe returns every grant the user issued, active or not.
func (m *Manager) ListSharedByMe(ctx context.Context, userID string) ([]*View, error) {
	now := m.clock.Now()
	var out []*View
	err := m.store.View(ctx, func(tx types.Tx) error {
		shares, err := tx.Shares().FetchByOwner(ctx, userID)
		if err != nil {
			return err
		}
		out, err = newJoiner(ctx, tx, now).views(shares)
		return err
	})
	return out, err
}

// ListSharedWithMe returns the grants to the user that are active now.
// Expired grants are omitted though they remain stored.
func (m *Manager) ListSharedWithMe(ctx context.Context, userID string) ([]*View, error) {
	now := m.clock.Now()
	var out []*View
	err := m.store.View(ctx, func(tx types.Tx) error {
		shares, err := tx.Shares().FetchActiveByRecipient(ctx, userID, now)
		if err != nil {
			return err
		}
		out, err = newJoiner(ctx, tx, now).views(shares)
		return err
	})
	return out, err
}

// SharedContact returns a contact the user may read together with the
// resolved access.
func (m *Manager) SharedContact(ctx context.Context, userID, contactID string) (access.Access, error) {
	a, err := m.evaluator.Resolve(ctx, userID, contactID)
	if err != nil {
		return access.Access{}, err
	}
	if err := a.Require(access.CapRead); err != nil {
		return access.Access{}, err
	}
	return a, nil
}

func getContact(ctx context.Context, tx types.Tx, contactID string) (*types.Contact, error) {
	contact, err := tx.Contacts().Get(ctx, contactID)
	if errors.Is(err, types.ErrInvalidID) {
		return nil, types.ErrNotFound
	}
	return contact, err
}

func getOwnedShare(ctx context.Context, tx types.Tx, ownerID, shareID string) (*types.Share, error) {
	share, err := tx.Shares().Get(ctx, shareID)
	if errors.Is(err, types.ErrInvalidID) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if share.OwnerUserID != ownerID {
		return nil, fmt.Errorf("share %s: %w", shareID, types.ErrForbidden)
	}
	return share, nil
}

// joiner resolves display names for views, caching lookups within one
// transaction.
type joiner struct {
	ctx      context.Context
	tx       types.Tx
	now      time.Time
	users    map[string]*types.User
	contacts map[string]*types.Contact
}

func newJoiner(ctx context.Context, tx types.Tx, now time.Time) *joiner {
	return &joiner{
		ctx:      ctx,
		tx:       tx,
		now:      now,
		users:    make(map[string]*types.User),
		contacts: make(map[string]*types.Contact),
	}
}

func (j *joiner) views(shares []*types.Share) ([]*View, error) {
	out := make([]*View, 0, len(shares))
	for _, s := range shares {
		v, err := j.view(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (j *joiner) view(s *types.Share) (*View, error) {
	v := &View{
		Share:         *s,
		ContactName:   unknown,
		OwnerName:     unknown,
		RecipientName: unknown,
		Active:        s.IsActive(j.now),
	}
	contact, err := j.contact(s.ContactID)
	if err != nil {
		return nil, err
	}
	if contact != nil {
		v.ContactName = contact.Name
	}
	owner, err := j.user(s.OwnerUserID)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		v.OwnerName, v.OwnerEmail = owner.Name, owner.Email
	}
	recipient, err := j.user(s.SharedWithUserID)
	if err != nil {
		return nil, err
	}
	if recipient != nil {
		v.RecipientName, v.RecipientEmail = recipient.Name, recipient.Email
	}
	return v, nil
}

// user returns nil for a user that does not exist.
func (j *joiner) user(id string) (*types.User, error) {
	if u, ok := j.users[id]; ok {
		return u, nil
	}
	u, err := j.tx.Users().Get(j.ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		u, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.users[id] = u
	return u, nil
}

func (j *joiner) contact(id string) (*types.Contact, error) {
	if c, ok := j.contacts[id]; ok {
		return c, nil
	}
	c, err := j.tx.Contacts().Get(j.ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		c, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.contacts[id] = c
	return c, nil
}
