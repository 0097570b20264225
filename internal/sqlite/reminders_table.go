package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

var _ types.ReminderTable = (*remindersTable)(nil)

type remindersTable struct {
	q querier
}

const reminderColumns = `reminder_id, user_id, contact_id, meeting_id, kind, status, scheduled_at,
message, created_at`

const reminderOrder = " ORDER BY scheduled_at, reminder_id"

func (rt *remindersTable) Get(ctx context.Context, id string) (*types.Reminder, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	row := rt.q.QueryRowContext(ctx, "SELECT "+reminderColumns+" FROM reminders WHERE reminder_id = ?", id)
	return scanReminder(row)
}

func (rt *remindersTable) Set(ctx context.Context, r *types.Reminder) (string, error) {
	if r == nil {
		return "", types.ErrInvalidData
	}
	if r.UserID == "" || r.ContactID == "" {
		return "", types.ErrInvalidID
	}
	if r.Kind == "" || r.ScheduledAt.IsZero() {
		return "", types.ErrInvalidData
	}
	if r.Status == "" {
		r.Status = types.ReminderPending
	}
	if r.ReminderID == "" {
		r.ReminderID = generateUUID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := rt.q.ExecContext(ctx, `INSERT INTO reminders (`+reminderColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(reminder_id) DO UPDATE SET
    status = excluded.status, scheduled_at = excluded.scheduled_at, message = excluded.message`,
		r.ReminderID, r.UserID, r.ContactID, nullString(r.MeetingID), r.Kind, r.Status,
		formatTime(r.ScheduledAt), r.Message, formatTime(r.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting reminder: %w", err)
	}
	return r.ReminderID, nil
}

func (rt *remindersTable) FetchByUser(ctx context.Context, userID, status string) ([]*types.Reminder, error) {
	if status == "" {
		return rt.fetch(ctx, "SELECT "+reminderColumns+" FROM reminders WHERE user_id = ?"+reminderOrder, userID)
	}
	return rt.fetch(ctx,
		"SELECT "+reminderColumns+" FROM reminders WHERE user_id = ? AND status = ?"+reminderOrder,
		userID, status,
	)
}

func (rt *remindersTable) FetchByContact(ctx context.Context, contactID string) ([]*types.Reminder, error) {
	return rt.fetch(ctx, "SELECT "+reminderColumns+" FROM reminders WHERE contact_id = ?"+reminderOrder, contactID)
}

func (rt *remindersTable) DeleteByContact(ctx context.Context, contactID string) (int, error) {
	res, err := rt.q.ExecContext(ctx, "DELETE FROM reminders WHERE contact_id = ?", contactID)
	if err != nil {
		return 0, fmt.Errorf("deleting reminders of contact: %w", err)
	}
	return rowsAffected(res)
}

func (rt *remindersTable) DeleteByMeeting(ctx context.Context, meetingID string) (int, error) {
	res, err := rt.q.ExecContext(ctx, "DELETE FROM reminders WHERE meeting_id = ?", meetingID)
	if err != nil {
		return 0, fmt.Errorf("deleting reminders of meeting: %w", err)
	}
	return rowsAffected(res)
}

func (rt *remindersTable) fetch(ctx context.Context, query string, args ...any) ([]*types.Reminder, error) {
	rows, err := rt.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*types.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func scanReminder(s scanner) (*types.Reminder, error) {
	var (
		r                      types.Reminder
		meetingID              sql.NullString
		scheduledAt, createdAt string
	)
	err := s.Scan(
		&r.ReminderID, &r.UserID, &r.ContactID, &meetingID, &r.Kind, &r.Status, &scheduledAt,
		&r.Message, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning reminder: %w", err)
	}
	r.MeetingID = meetingID.String
	if r.ScheduledAt, err = parseTime(scheduledAt); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}
