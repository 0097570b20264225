// Package cascade owns the operations whose effects span more than one
// entity: creating and deleting contacts and meetings. Each runs in a single
// store transaction, so either every dependent row changes or none does.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/rapport/internal/access"
	"github.com/mesh-intelligence/rapport/internal/reminders"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// Coordinator runs the cross-entity mutations.
type Coordinator struct {
	store     types.Store
	scheduler *reminders.Scheduler
	clock     types.Clock
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator. A nil clock uses time.Now.
func NewCoordinator(log *slog.Logger, store types.Store, scheduler *reminders.Scheduler, clock types.Clock) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		store:     store,
		scheduler: scheduler,
		clock:     clock,
		logger:    log.With(slog.String("service", "cascade")),
	}
}

// CreateContact stores c owned by callerID and schedules its birthday and
// anniversary reminders. Any OwnerID or LastContactedAt on c is replaced.
func (co *Coordinator) CreateContact(ctx context.Context, callerID string, c *types.Contact) (*types.Contact, error) {
	if c == nil {
		return nil, types.ErrInvalidData
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	now := co.clock.Now()

	contact := *c
	contact.ContactID = ""
	contact.OwnerID = callerID
	contact.LastContactedAt = nil
	contact.Birthday = datePtr(c.Birthday)
	contact.Anniversary = datePtr(c.Anniversary)
	contact.CreatedAt = now
	contact.UpdatedAt = now

	var scheduled int
	err := co.store.Update(ctx, func(tx types.Tx) error {
		if _, err := tx.Contacts().Set(ctx, &contact); err != nil {
			return fmt.Errorf("storing contact: %w", err)
		}
		created, err := co.scheduler.OnContactCreated(ctx, tx, &contact, now)
		scheduled = len(created)
		return err
	})
	if err != nil {
		return nil, err
	}
	co.logger.Info("contact created",
		slog.String("contact_id", contact.ContactID),
		slog.Int("reminders", scheduled),
	)
	return &contact, nil
}

// DeleteContact removes the contact with its reminders, shares and
// meetings. Only the owner may delete. Once access is granted, any failure
// is reported as ErrCascadeFailed wrapping the cause, and nothing is
// committed.
func (co *Coordinator) DeleteContact(ctx context.Context, callerID, contactID string) error {
	now := co.clock.Now()

	var authorized bool
	var removed struct{ reminders, shares, meetings int }
	err := co.store.Update(ctx, func(tx types.Tx) error {
		if _, err := access.Authorize(ctx, tx, callerID, contactID, now, access.CapDelete); err != nil {
			return err
		}
		authorized = true

		var err error
		if removed.reminders, err = co.scheduler.RetireForContact(ctx, tx, contactID); err != nil {
			return fmt.Errorf("deleting reminders: %w", err)
		}
		if removed.shares, err = tx.Shares().DeleteByContact(ctx, contactID); err != nil {
			return fmt.Errorf("deleting shares: %w", err)
		}
		if removed.meetings, err = tx.Meetings().DeleteByContact(ctx, contactID); err != nil {
			return fmt.Errorf("deleting meetings: %w", err)
		}
		if err := tx.Contacts().Delete(ctx, contactID); err != nil {
			return fmt.Errorf("deleting contact: %w", err)
		}
		return nil
	})
	if err != nil {
		if authorized {
			co.logger.Error("contact delete failed",
				slog.String("contact_id", contactID),
				slog.Any("error", err),
			)
			return fmt.Errorf("%w: %w", types.ErrCascadeFailed, err)
		}
		return err
	}
	co.logger.Info("contact deleted",
		slog.String("contact_id", contactID),
		slog.Int("reminders", removed.reminders),
		slog.Int("shares", removed.shares),
		slog.Int("meetings", removed.meetings),
	)
	return nil
}

// CreateMeeting logs m against its contact, dated now when MeetingDate is
// zero. The caller needs the add-meeting capability: the owner or a
// VIEW_ADD recipient. The meeting always belongs to the contact's owner;
// CreatedBy records the caller. The contact's LastContactedAt moves to the
// meeting date and a follow-up reminder is scheduled when FollowupDate is
// set.
func (co *Coordinator) CreateMeeting(ctx context.Context, callerID string, m *types.Meeting) (*types.Meeting, error) {
	if m == nil {
		return nil, types.ErrInvalidData
	}
	meeting := *m
	if meeting.Medium == "" {
		meeting.Medium = types.MediumOther
	}
	medium, err := types.ParseMedium(meeting.Medium)
	if err != nil {
		return nil, err
	}
	meeting.Medium = medium
	now := co.clock.Now()
	if meeting.MeetingDate.IsZero() {
		meeting.MeetingDate = now
	}
	if err := meeting.Validate(); err != nil {
		return nil, err
	}

	err = co.store.Update(ctx, func(tx types.Tx) error {
		a, err := access.Authorize(ctx, tx, callerID, meeting.ContactID, now, access.CapAddMeeting)
		if err != nil {
			return err
		}
		contact := a.Contact

		meeting.MeetingID = ""
		meeting.UserID = contact.OwnerID
		meeting.CreatedBy = callerID
		meeting.CreatedAt = now
		meeting.UpdatedAt = now
		if _, err := tx.Meetings().Set(ctx, &meeting); err != nil {
			return fmt.Errorf("storing meeting: %w", err)
		}

		contacted := meeting.MeetingDate
		contact.LastContactedAt = &contacted
		contact.UpdatedAt = now
		if _, err := tx.Contacts().Set(ctx, contact); err != nil {
			return fmt.Errorf("updating last contacted: %w", err)
		}

		_, err = co.scheduler.OnMeetingCreated(ctx, tx, &meeting, contact, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	co.logger.Info("meeting created",
		slog.String("meeting_id", meeting.MeetingID),
		slog.String("contact_id", meeting.ContactID),
		slog.String("created_by", callerID),
	)
	return &meeting, nil
}

// DeleteMeeting removes a meeting and the reminders that reference it. Only
// the meeting's owner may delete it. The contact's LastContactedAt is left
// as is.
func (co *Coordinator) DeleteMeeting(ctx context.Context, callerID, meetingID string) error {
	var authorized bool
	err := co.store.Update(ctx, func(tx types.Tx) error {
		meeting, err := tx.Meetings().Get(ctx, meetingID)
		if errors.Is(err, types.ErrInvalidID) {
			return types.ErrNotFound
		}
		if err != nil {
			return err
		}
		if meeting.UserID != callerID {
			return fmt.Errorf("meeting %s: %w", meetingID, types.ErrForbidden)
		}
		authorized = true

		if _, err := co.scheduler.RetireForMeeting(ctx, tx, meetingID); err != nil {
			return fmt.Errorf("deleting reminders: %w", err)
		}
		if err := tx.Meetings().Delete(ctx, meetingID); err != nil {
			return fmt.Errorf("deleting meeting: %w", err)
		}
		return nil
	})
	if err != nil {
		if authorized {
			return fmt.Errorf("%w: %w", types.ErrCascadeFailed, err)
		}
		return err
	}
	co.logger.Info("meeting deleted", slog.String("meeting_id", meetingID))
	return nil
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := types.DateOnly(*t)
	return &d
}
