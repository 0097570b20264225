package types

import "time"

// Reminder kinds.
const (
	ReminderBirthday    = "birthday"
	ReminderAnniversary = "anniversary"
	ReminderFollowUp    = "follow_up"
)

// Reminder statuses. Dismissed is terminal.
const (
	ReminderPending   = "pending"
	ReminderDismissed = "dismissed"
)

// Reminder is a scheduled nudge for a user about a contact. Reminders are
// created only by the scheduler.
type Reminder struct {
	ReminderID  string    `json:"reminder_id"`
	UserID      string    `json:"user_id"`
	ContactID   string    `json:"contact_id"`
	MeetingID   string    `json:"meeting_id,omitempty"` // Set only for follow-ups.
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsPending reports whether the reminder has not been dismissed.
func (r *Reminder) IsPending() bool {
	return r.Status == ReminderPending
}

// Dismiss marks the reminder dismissed. It returns false when the reminder
// was already dismissed.
func (r *Reminder) Dismiss() bool {
	if r.Status == ReminderDismissed {
		return false
	}
	r.Status = ReminderDismissed
	return true
}
