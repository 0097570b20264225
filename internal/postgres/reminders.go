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

type remindersTable struct {
	q querier
}

const reminderColumns = `reminder_id, user_id, contact_id, meeting_id, kind, status, scheduled_at,
message, created_at`

const reminderOrder = " ORDER BY scheduled_at, reminder_id"

func (rt *remindersTable) Get(ctx context.Context, id string) (*types.Reminder, error) {
	pgID, err := lookupID(id)
	if err != nil {
		return nil, err
	}
	return scanReminder(rt.q.QueryRow(ctx, "SELECT "+reminderColumns+" FROM reminders WHERE reminder_id = $1", pgID))
}

func (rt *remindersTable) Set(ctx context.Context, r *types.Reminder) (string, error) {
	if r == nil {
		return "", types.ErrInvalidData
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
	ids, err := parseUUIDs(r.ReminderID, r.UserID, r.ContactID)
	if err != nil {
		return "", err
	}
	meetingID, err := optionalUUID(r.MeetingID)
	if err != nil {
		return "", err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.ScheduledAt = truncate(r.ScheduledAt)
	r.CreatedAt = truncate(r.CreatedAt)

	_, err = rt.q.Exec(ctx, `INSERT INTO reminders (`+reminderColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (reminder_id) DO UPDATE SET
    status = EXCLUDED.status, scheduled_at = EXCLUDED.scheduled_at, message = EXCLUDED.message`,
		ids[0], ids[1], ids[2], meetingID, r.Kind, r.Status, r.ScheduledAt, r.Message, r.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("persisting reminder: %w", err)
	}
	return r.ReminderID, nil
}

func (rt *remindersTable) FetchByUser(ctx context.Context, userID, status string) ([]*types.Reminder, error) {
	pgID, err := lookupID(userID)
	if err != nil {
		return nil, nil
	}
	var rows pgx.Rows
	if status == "" {
		rows, err = rt.q.Query(ctx, "SELECT "+reminderColumns+" FROM reminders WHERE user_id = $1"+reminderOrder, pgID)
	} else {
		rows, err = rt.q.Query(ctx,
			"SELECT "+reminderColumns+" FROM reminders WHERE user_id = $1 AND status = $2"+reminderOrder,
			pgID, status,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	return collect(rows, scanReminder)
}

func (rt *remindersTable) FetchByContact(ctx context.Context, contactID string) ([]*types.Reminder, error) {
	pgID, err := lookupID(contactID)
	if err != nil {
		return nil, nil
	}
	rows, err := rt.q.Query(ctx, "SELECT "+reminderColumns+" FROM reminders WHERE contact_id = $1"+reminderOrder, pgID)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	return collect(rows, scanReminder)
}

func (rt *remindersTable) DeleteByContact(ctx context.Context, contactID string) (int, error) {
	return rt.deleteWhere(ctx, "contact_id", contactID)
}

func (rt *remindersTable) DeleteByMeeting(ctx context.Context, meetingID string) (int, error) {
	return rt.deleteWhere(ctx, "meeting_id", meetingID)
}

// deleteWhere deletes by one of the fixed id columns above.
func (rt *remindersTable) deleteWhere(ctx context.Context, column, id string) (int, error) {
	pgID, err := lookupID(id)
	if err != nil {
		return 0, nil
	}
	tag, err := rt.q.Exec(ctx, "DELETE FROM reminders WHERE "+column+" = $1", pgID)
	if err != nil {
		return 0, fmt.Errorf("deleting reminders by %s: %w", column, err)
	}
	return int(tag.RowsAffected()), nil
}

func scanReminder(s scanner) (*types.Reminder, error) {
	var (
		r                                types.Reminder
		id, userID, contactID, meetingID pgtype.UUID
		scheduledAt, createdAt           pgtype.Timestamptz
	)
	err := s.Scan(&id, &userID, &contactID, &meetingID, &r.Kind, &r.Status, &scheduledAt, &r.Message, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning reminder: %w", err)
	}
	r.ReminderID = toUUIDString(id)
	r.UserID = toUUIDString(userID)
	r.ContactID = toUUIDString(contactID)
	r.MeetingID = toUUIDString(meetingID)
	r.ScheduledAt = scheduledAt.Time.UTC()
	r.CreatedAt = createdAt.Time.UTC()
	return &r, nil
}
