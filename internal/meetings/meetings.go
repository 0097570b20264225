// Package meetings serves meeting reads and edits. Creating and deleting a
// meeting go through the cascade coordinator.
package meetings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mesh-intelligence/rapport/internal/access"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// UpdateRequest is a partial meeting edit. ClearFollowup removes the
// follow-up date and wins over FollowupDate.
type UpdateRequest struct {
	MeetingDate   *time.Time `json:"meeting_date,omitempty"`
	Medium        *string    `json:"medium,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	Outcome       *string    `json:"outcome,omitempty"`
	FollowupDate  *time.Time `json:"followup_date,omitempty"`
	ClearFollowup bool       `json:"clear_followup,omitempty"`
}

// Service reads and edits meetings.
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
		logger: log.With(slog.String("service", "meetings")),
	}
}

// Get returns a meeting when the caller may read its contact.
func (s *Service) Get(ctx context.Context, userID, meetingID string) (*types.Meeting, error) {
	now := s.clock.Now()
	var m *types.Meeting
	err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		if m, err = getMeeting(ctx, tx, meetingID); err != nil {
			return err
		}
		_, err = access.Authorize(ctx, tx, userID, m.ContactID, now, access.CapRead)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByContact returns the contact's meetings newest first. Any reader of
// the contact may list them.
func (s *Service) ListByContact(ctx context.Context, userID, contactID string) ([]*types.Meeting, error) {
	now := s.clock.Now()
	var out []*types.Meeting
	err := s.store.View(ctx, func(tx types.Tx) error {
		if _, err := access.Authorize(ctx, tx, userID, contactID, now, access.CapRead); err != nil {
			return err
		}
		var err error
		out, err = tx.Meetings().FetchByContact(ctx, contactID)
		return err
	})
	return out, err
}

// ListMine returns the meetings the user owns newest first, including those
// logged by VIEW_ADD recipients on the user's contacts.
func (s *Service) ListMine(ctx context.Context, userID string) ([]*types.Meeting, error) {
	var out []*types.Meeting
	err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		out, err = tx.Meetings().FetchByUser(ctx, userID)
		return err
	})
	return out, err
}

// UpcomingFollowups returns the user's meetings with a follow-up date on or
// after today, soonest first.
func (s *Service) UpcomingFollowups(ctx context.Context, userID string) ([]*types.Meeting, error) {
	today := types.DateOnly(s.clock.Now().UTC())
	mine, err := s.ListMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	var out []*types.Meeting
	for _, m := range mine {
		if m.FollowupDate != nil && !m.FollowupDate.Before(today) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FollowupDate.Before(*out[j].FollowupDate)
	})
	return out, nil
}

// Update applies req to a meeting the caller owns. Reminders and the
// contact's LastContactedAt are left untouched.
func (s *Service) Update(ctx context.Context, userID, meetingID string, req UpdateRequest) (*types.Meeting, error) {
	var medium string
	if req.Medium != nil {
		m, err := types.ParseMedium(*req.Medium)
		if err != nil {
			return nil, err
		}
		medium = m
	}
	now := s.clock.Now()

	var m *types.Meeting
	err := s.store.Update(ctx, func(tx types.Tx) error {
		var err error
		if m, err = getMeeting(ctx, tx, meetingID); err != nil {
			return err
		}
		if m.UserID != userID {
			return fmt.Errorf("meeting %s: %w", meetingID, types.ErrForbidden)
		}
		if req.MeetingDate != nil {
			m.MeetingDate = *req.MeetingDate
		}
		if req.Medium != nil {
			m.Medium = medium
		}
		if req.Notes != nil {
			m.Notes = *req.Notes
		}
		if req.Outcome != nil {
			m.Outcome = *req.Outcome
		}
		switch {
		case req.ClearFollowup:
			m.FollowupDate = nil
		case req.FollowupDate != nil:
			m.FollowupDate = req.FollowupDate
		}
		m.UpdatedAt = now
		if _, err := tx.Meetings().Set(ctx, m); err != nil {
			return fmt.Errorf("storing meeting: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("meeting updated", slog.String("meeting_id", meetingID))
	return m, nil
}

func getMeeting(ctx context.Context, tx types.Tx, meetingID string) (*types.Meeting, error) {
	m, err := tx.Meetings().Get(ctx, meetingID)
	if errors.Is(err, types.ErrInvalidID) {
		return nil, types.ErrNotFound
	}
	return m, err
}
