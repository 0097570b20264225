// Package reminders derives reminders from contact and meeting events and
// serves the reminder queries.
//
// Birthday and anniversary reminders are written once, at contact creation,
// scheduled at the next occurrence. Recurrence is computed at read time by
// Upcoming from the contact's dates, so the stored row is informational.
// Follow-up reminders are one-shot and authoritative.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// Scheduler creates, retires and dismisses reminders.
type Scheduler struct {
	store  types.Store
	clock  types.Clock
	logger *slog.Logger
}

// NewScheduler creates a Scheduler. A nil clock uses time.Now.
func NewScheduler(log *slog.Logger, store types.Store, clock types.Clock) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		store:  store,
		clock:  clock,
		logger: log.With(slog.String("service", "reminders")),
	}
}

// Messages stored on reminders.
func birthdayMessage(name string) string    { return "Birthday: " + name }
func anniversaryMessage(name string) string { return "Anniversary: " + name }
func followUpMessage(name string) string    { return "Follow up with " + name }

// OnContactCreated writes a pending birthday reminder when the contact has a
// birthday and a pending anniversary reminder when it has an anniversary.
// It runs inside the caller's transaction.
func (s *Scheduler) OnContactCreated(ctx context.Context, tx types.Tx, c *types.Contact, now time.Time) ([]*types.Reminder, error) {
	var created []*types.Reminder
	add := func(kind string, date *time.Time, message string) error {
		if date == nil {
			return nil
		}
		r := &types.Reminder{
			UserID:      c.OwnerID,
			ContactID:   c.ContactID,
			Kind:        kind,
			Status:      types.ReminderPending,
			ScheduledAt: NextOccurrence(*date, now),
			Message:     message,
			CreatedAt:   now,
		}
		if _, err := tx.Reminders().Set(ctx, r); err != nil {
			return fmt.Errorf("scheduling %s reminder: %w", kind, err)
		}
		created = append(created, r)
		return nil
	}

	if err := add(types.ReminderBirthday, c.Birthday, birthdayMessage(c.Name)); err != nil {
		return nil, err
	}
	if err := add(types.ReminderAnniversary, c.Anniversary, anniversaryMessage(c.Name)); err != nil {
		return nil, err
	}
	return created, nil
}

// OnMeetingCreated writes a pending follow-up reminder for the meeting's
// owner when the meeting has a follow-up date. It returns nil when there is
// nothing to schedule.
func (s *Scheduler) OnMeetingCreated(ctx context.Context, tx types.Tx, m *types.Meeting, c *types.Contact, now time.Time) (*types.Reminder, error) {
	if m.FollowupDate == nil {
		return nil, nil
	}
	r := &types.Reminder{
		UserID:      m.UserID,
		ContactID:   m.ContactID,
		MeetingID:   m.MeetingID,
		Kind:        types.ReminderFollowUp,
		Status:      types.ReminderPending,
		ScheduledAt: *m.FollowupDate,
		Message:     followUpMessage(c.Name),
		CreatedAt:   now,
	}
	if _, err := tx.Reminders().Set(ctx, r); err != nil {
		return nil, fmt.Errorf("scheduling follow-up reminder: %w", err)
	}
	return r, nil
}

// RetireForContact deletes every reminder of the contact.
func (s *Scheduler) RetireForContact(ctx context.Context, tx types.Tx, contactID string) (int, error) {
	return tx.Reminders().DeleteByContact(ctx, contactID)
}

// RetireForMeeting deletes the reminders that reference the meeting.
func (s *Scheduler) RetireForMeeting(ctx context.Context, tx types.Tx, meetingID string) (int, error) {
	return tx.Reminders().DeleteByMeeting(ctx, meetingID)
}

// Dismiss marks the user's reminder dismissed. Dismissing an already
// dismissed reminder succeeds without writing.
func (s *Scheduler) Dismiss(ctx context.Context, userID, reminderID string) (*types.Reminder, error) {
	var out *types.Reminder
	err := s.store.Update(ctx, func(tx types.Tx) error {
		r, err := tx.Reminders().Get(ctx, reminderID)
		if err != nil {
			return err
		}
		if r.UserID != userID {
			return types.ErrForbidden
		}
		out = r
		if !r.Dismiss() {
			return nil
		}
		_, err = tx.Reminders().Set(ctx, r)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("reminder dismissed", slog.String("reminder_id", reminderID), slog.String("user_id", userID))
	return out, nil
}

// ListPending returns the user's pending reminders ordered by ScheduledAt.
func (s *Scheduler) ListPending(ctx context.Context, userID string) ([]*types.Reminder, error) {
	var out []*types.Reminder
	err := s.store.View(ctx, func(tx types.Tx) error {
		var err error
		out, err = tx.Reminders().FetchByUser(ctx, userID, types.ReminderPending)
		return err
	})
	return out, err
}

// Occasion is one upcoming event for a user.
type Occasion struct {
	Kind        string    `json:"kind"`
	ContactID   string    `json:"contact_id"`
	ContactName string    `json:"contact_name"`
	Date        time.Time `json:"date"`
	DaysUntil   int       `json:"days_until"`
	Message     string    `json:"message"`
	ReminderID  string    `json:"reminder_id,omitempty"`
	MeetingID   string    `json:"meeting_id,omitempty"`
}

// Upcoming returns the user's occasions in [today, today+days]: birthdays
// and anniversaries of the user's contacts, computed from the contacts'
// dates, plus pending follow-up reminders. Results are ordered by date.
func (s *Scheduler) Upcoming(ctx context.Context, userID string, days int) ([]Occasion, error) {
	if days < 0 {
		return nil, fmt.Errorf("days must not be negative: %w", types.ErrInvalidData)
	}
	now := s.clock.Now()
	today := types.DateOnly(now)
	end := today.AddDate(0, 0, days)

	var out []Occasion
	err := s.store.View(ctx, func(tx types.Tx) error {
		contacts, err := tx.Contacts().FetchByOwner(ctx, userID)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(contacts))
		for _, c := range contacts {
			names[c.ContactID] = c.Name
			if c.Birthday != nil {
				out = appendIfWithin(out, today, end, Occasion{
					Kind:        types.ReminderBirthday,
					ContactID:   c.ContactID,
					ContactName: c.Name,
					Date:        NextOccurrence(*c.Birthday, now),
					Message:     birthdayMessage(c.Name),
				})
			}
			if c.Anniversary != nil {
				out = appendIfWithin(out, today, end, Occasion{
					Kind:        types.ReminderAnniversary,
					ContactID:   c.ContactID,
					ContactName: c.Name,
					Date:        NextOccurrence(*c.Anniversary, now),
					Message:     anniversaryMessage(c.Name),
				})
			}
		}

		pending, err := tx.Reminders().FetchByUser(ctx, userID, types.ReminderPending)
		if err != nil {
			return err
		}
		for _, r := range pending {
			if r.Kind != types.ReminderFollowUp {
				continue
			}
			out = appendIfWithin(out, today, end, Occasion{
				Kind:        r.Kind,
				ContactID:   r.ContactID,
				ContactName: names[r.ContactID],
				Date:        types.DateOnly(r.ScheduledAt),
				Message:     r.Message,
				ReminderID:  r.ReminderID,
				MeetingID:   r.MeetingID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ContactName < out[j].ContactName
	})
	return out, nil
}

func appendIfWithin(out []Occasion, today, end time.Time, o Occasion) []Occasion {
	if o.Date.Before(today) || o.Date.After(end) {
		return out
	}
	o.DaysUntil = daysBetween(today, o.Date)
	return append(out, o)
}
