// Package contacts serves contact reads and owner edits. Creation and
// deletion belong to the cascade coordinator because they touch reminders,
// shares and meetings.
package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mesh-intelligence/rapport/internal/access"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// View is a contact as seen by one caller.
type View struct {
	types.Contact
	Access     string `json:"access"`
	Permission string `json:"permission,omitempty"`
}

// UpdateRequest is a partial contact edit. Nil fields are left unchanged.
// The Clear flags remove a date and win over the matching pointer.
type UpdateRequest struct {
	Name             *string    `json:"name,omitempty"`
	Emails           *[]string  `json:"emails,omitempty"`
	Phones           *[]string  `json:"phones,omitempty"`
	WhatsappNumber   *string    `json:"whatsapp_number,omitempty"`
	InstagramHandle  *string    `json:"instagram_handle,omitempty"`
	Company          *string    `json:"company,omitempty"`
	Tags             *[]string  `json:"tags,omitempty"`
	Address          *string    `json:"address,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Birthday         *time.Time `json:"birthday,omitempty"`
	ClearBirthday    bool       `json:"clear_birthday,omitempty"`
	Anniversary      *time.Time `json:"anniversary,omitempty"`
	ClearAnniversary bool       `json:"clear_anniversary,omitempty"`
	ProfilePicture   *string    `json:"profile_picture,omitempty"`
}

// Service reads and edits contacts through the access evaluator.
type Service struct {
	store  types.Store
	clock  types.Clock
	logger *slog.Logger
}

// NewService creates a Service. A nil clock uses time.Now.
func NewService(log *slog.Logger, store types.Store, clock types.Clock) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		clock:  clock,
		logger: log.With(slog.String("service", "contacts")),
	}
}

// Get returns the contact when the caller owns it or holds an active share.
func (s *Service) Get(ctx context.Context, userID, contactID string) (*View, error) {
	now := s.clock.Now()
	var a access.Access
	err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		a, err = access.Authorize(ctx, tx, userID, contactID, now, access.CapRead)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newView(a), nil
}

// List returns the caller's own contacts ordered by name.
func (s *Service) List(ctx context.Context, userID string) ([]*types.Contact, error) {
	var out []*types.Contact
	err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		out, err = tx.Contacts().FetchByOwner(ctx, userID)
		return err
	})
	return out, err
}

// Search returns the caller's own contacts whose name contains query,
// ignoring case. An empty query matches every contact.
func (s *Service) Search(ctx context.Context, userID, query string) ([]*types.Contact, error) {
	all, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all, nil
	}
	var out []*types.Contact
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Update applies req to a contact the caller owns. OwnerID and
// LastContactedAt are never changed, and reminders are not re-derived.
func (s *Service) Update(ctx context.Context, userID, contactID string, req UpdateRequest) (*types.Contact, error) {
	now := s.clock.Now()
	var contact *types.Contact
	err := s.store.Update(ctx, func(tx types.Tx) error {
		a, err := access.Authorize(ctx, tx, userID, contactID, now, access.CapEdit)
		if err != nil {
			return err
		}
		contact = a.Contact
		req.apply(contact)
		if err := contact.Validate(); err != nil {
			return err
		}
		contact.UpdatedAt = now
		if _, err := tx.Contacts().Set(ctx, contact); err != nil {
			return fmt.Errorf("storing contact: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("contact updated", slog.String("contact_id", contactID))
	return contact, nil
}

func (r UpdateRequest) apply(c *types.Contact) {
	setString(&c.Name, r.Name)
	setString(&c.WhatsappNumber, r.WhatsappNumber)
	setString(&c.InstagramHandle, r.InstagramHandle)
	setString(&c.Company, r.Company)
	setString(&c.Address, r.Address)
	setString(&c.Notes, r.Notes)
	setString(&c.ProfilePicture, r.ProfilePicture)
	if r.Emails != nil {
		c.Emails = *r.Emails
	}
	if r.Phones != nil {
		c.Phones = *r.Phones
	}
	if r.Tags != nil {
		c.Tags = *r.Tags
	}
	c.Birthday = setDate(c.Birthday, r.Birthday, r.ClearBirthday)
	c.Anniversary = setDate(c.Anniversary, r.Anniversary, r.ClearAnniversary)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDate(cur, next *time.Time, remove bool) *time.Time {
	switch {
	case remove:
		return nil
	case next != nil:
		d := types.DateOnly(*next)
		return &d
	default:
		return cur
	}
}

func newView(a access.Access) *View {
	return &View{
		Contact:    *a.Contact,
		Access:     a.Level.String(),
		Permission: a.Permission,
	}
}
