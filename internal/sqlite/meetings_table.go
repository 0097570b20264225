package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

var _ types.MeetingTable = (*meetingsTable)(nil)

type meetingsTable struct {
	q querier
}

const meetingColumns = `meeting_id, contact_id, user_id, created_by, meeting_date, medium, notes,
outcome, followup_date, created_at, updated_at`

const meetingOrder = " ORDER BY meeting_date DESC, created_at DESC, meeting_id DESC"

func (mt *meetingsTable) Get(ctx context.Context, id string) (*types.Meeting, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	row := mt.q.QueryRowContext(ctx, "SELECT "+meetingColumns+" FROM meetings WHERE meeting_id = ?", id)
	return scanMeeting(row)
}

func (mt *meetingsTable) Set(ctx context.Context, m *types.Meeting) (string, error) {
	if m == nil {
		return "", types.ErrInvalidData
	}
	if err := m.Validate(); err != nil {
		return "", err
	}
	if m.UserID == "" {
		return "", types.ErrInvalidID
	}
	if m.CreatedBy == "" {
		m.CreatedBy = m.UserID
	}
	if m.MeetingID == "" {
		m.MeetingID = generateUUID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	_, err := mt.q.ExecContext(ctx, `INSERT INTO meetings (`+meetingColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(meeting_id) DO UPDATE SET
    meeting_date = excluded.meeting_date, medium = excluded.medium, notes = excluded.notes,
    outcome = excluded.outcome, followup_date = excluded.followup_date, updated_at = excluded.updated_at`,
		m.MeetingID, m.ContactID, m.UserID, m.CreatedBy, formatTime(m.MeetingDate), m.Medium, m.Notes,
		m.Outcome, nullTime(m.FollowupDate), formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting meeting: %w", err)
	}
	return m.MeetingID, nil
}

func (mt *meetingsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := mt.q.ExecContext(ctx, "DELETE FROM meetings WHERE meeting_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting meeting: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (mt *meetingsTable) FetchByContact(ctx context.Context, contactID string) ([]*types.Meeting, error) {
	return mt.fetch(ctx, "SELECT "+meetingColumns+" FROM meetings WHERE contact_id = ?"+meetingOrder, contactID)
}

func (mt *meetingsTable) FetchByUser(ctx context.Context, userID string) ([]*types.Meeting, error) {
	return mt.fetch(ctx, "SELECT "+meetingColumns+" FROM meetings WHERE user_id = ?"+meetingOrder, userID)
}

func (mt *meetingsTable) DeleteByContact(ctx context.Context, contactID string) (int, error) {
	res, err := mt.q.ExecContext(ctx, "DELETE FROM meetings WHERE contact_id = ?", contactID)
	if err != nil {
		return 0, fmt.Errorf("deleting meetings of contact: %w", err)
	}
	return rowsAffected(res)
}

func (mt *meetingsTable) fetch(ctx context.Context, query string, args ...any) ([]*types.Meeting, error) {
	rows, err := mt.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*types.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, rows.Err()
}

func scanMeeting(s scanner) (*types.Meeting, error) {
	var (
		m                               types.Meeting
		meetingDate, createdAt, updated string
		followup                        sql.NullString
	)
	err := s.Scan(
		&m.MeetingID, &m.ContactID, &m.UserID, &m.CreatedBy, &meetingDate, &m.Medium, &m.Notes,
		&m.Outcome, &followup, &createdAt, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning meeting: %w", err)
	}
	if m.MeetingDate, err = parseTime(meetingDate); err != nil {
		return nil, err
	}
	if m.FollowupDate, err = parseNullTime(followup); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &m, nil
}
