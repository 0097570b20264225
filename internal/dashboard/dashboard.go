// Package dashboard computes the read-only rollups shown on a user's home
// screen.
package dashboard

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mesh-intelligence/rapport/internal/reminders"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

const (
	birthdayWindowDays = 7
	attentionAfterDays = 30
	listLimit          = 5
)

// Totals are the headline counts.
type Totals struct {
	Contacts          int `json:"contacts"`
	MeetingsThisMonth int `json:"meetings_this_month"`
	PendingReminders  int `json:"pending_reminders"`
	SharedWithMe      int `json:"shared_with_me"`
}

// Birthday is an owned contact's next birthday.
type Birthday struct {
	ContactID string    `json:"contact_id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	DaysUntil int       `json:"days_until"`
}

// Summary is the dashboard payload.
type Summary struct {
	Totals            Totals           `json:"totals"`
	UpcomingBirthdays []Birthday       `json:"upcoming_birthdays"`
	PendingFollowups  []*types.Meeting `json:"pending_followups"`
	RecentlyContacted []*types.Contact `json:"recently_contacted"`
	NeedsAttention    []*types.Contact `json:"needs_attention"`
}

// Service builds summaries.
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
		logger: log.With(slog.String("service", "dashboard")),
	}
}

// Summary returns the user's rollups:
//
//   - birthdays of owned contacts in the next 7 days, soonest first, at most 5
//   - the 5 most recently contacted owned contacts
//   - up to 5 owned contacts not contacted in 30 days, never-contacted first
//   - the user's meetings with a follow-up date on or after today
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	now := s.clock.Now().UTC()
	today := types.DateOnly(now)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	sum := &Summary{}
	err := s.store.View(ctx, func(tx types.Tx) error {
		contacts, err := tx.Contacts().FetchByOwner(ctx, userID)
		if err != nil {
			return err
		}
		meetings, err := tx.Meetings().FetchByUser(ctx, userID)
		if err != nil {
			return err
		}
		pending, err := tx.Reminders().FetchByUser(ctx, userID, types.ReminderPending)
		if err != nil {
			return err
		}
		shared, err := tx.Shares().FetchActiveByRecipient(ctx, userID, now)
		if err != nil {
			return err
		}

		sum.Totals = Totals{
			Contacts:         len(contacts),
			PendingReminders: len(pending),
			SharedWithMe:     len(shared),
		}
		for _, m := range meetings {
			if !m.MeetingDate.Before(monthStart) && m.MeetingDate.Before(monthEnd) {
				sum.Totals.MeetingsThisMonth++
			}
			if m.FollowupDate != nil && !m.FollowupDate.Before(today) {
				sum.PendingFollowups = append(sum.PendingFollowups, m)
			}
		}
		sort.SliceStable(sum.PendingFollowups, func(i, j int) bool {
			return sum.PendingFollowups[i].FollowupDate.Before(*sum.PendingFollowups[j].FollowupDate)
		})

		sum.UpcomingBirthdays = upcomingBirthdays(contacts, now)
		sum.RecentlyContacted = recentlyContacted(contacts)
		sum.NeedsAttention = needsAttention(contacts, now.AddDate(0, 0, -attentionAfterDays))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

func upcomingBirthdays(contacts []*types.Contact, now time.Time) []Birthday {
	today := types.DateOnly(now)
	end := today.AddDate(0, 0, birthdayWindowDays)
	var out []Birthday
	for _, c := range contacts {
		if c.Birthday == nil {
			continue
		}
		next := reminders.NextOccurrence(*c.Birthday, now)
		if next.After(end) {
			continue
		}
		out = append(out, Birthday{
			ContactID: c.ContactID,
			Name:      c.Name,
			Date:      next,
			DaysUntil: int(next.Sub(today).Hours() / 24),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return limit(out)
}

func recentlyContacted(contacts []*types.Contact) []*types.Contact {
	var out []*types.Contact
	for _, c := range contacts {
		if c.LastContactedAt != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastContactedAt.After(*out[j].LastContactedAt)
	})
	return limit(out)
}

func needsAttention(contacts []*types.Contact, threshold time.Time) []*types.Contact {
	var out []*types.Contact
	for _, c := range contacts {
		if c.LastContactedAt == nil || c.LastContactedAt.Before(threshold) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastContactedAt, out[j].LastContactedAt
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return a.Before(*b)
	})
	return limit(out)
}

func limit[T any](s []T) []T {
	if len(s) > listLimit {
		return s[:listLimit]
	}
	return s
}
