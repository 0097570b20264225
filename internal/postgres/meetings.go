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

type meetingsTable struct {
	q querier
}

const meetingColumns = `meeting_id, contact_id, user_id, created_by, meeting_date, medium, notes,
outcome, followup_date, created_at, updated_at`

const meetingOrder = " ORDER BY meeting_date DESC, created_at DESC, meeting_id DESC"

func (mt *meetingsTable) Get(ctx context.Context, id string) (*types.Meeting, error) {
	pgID, err := lookupID(id)
	if err != nil {
		return nil, err
	}
	return scanMeeting(mt.q.QueryRow(ctx, "SELECT "+meetingColumns+" FROM meetings WHERE meeting_id = $1", pgID))
}

func (mt *meetingsTable) Set(ctx context.Context, m *types.Meeting) (string, error) {
	if m == nil {
		return "", types.ErrInvalidData
	}
	if err := m.Validate(); err != nil {
		return "", err
	}
	if m.CreatedBy == "" {
		m.CreatedBy = m.UserID
	}
	if m.MeetingID == "" {
		m.MeetingID = generateUUID()
	}
	ids, err := parseUUIDs(m.MeetingID, m.ContactID, m.UserID, m.CreatedBy)
	if err != nil {
		return "", err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.MeetingDate = truncate(m.MeetingDate)
	m.FollowupDate = truncatePtr(m.FollowupDate)
	m.CreatedAt = truncate(m.CreatedAt)
	m.UpdatedAt = truncate(m.UpdatedAt)

	_, err = mt.q.Exec(ctx, `INSERT INTO meetings (`+meetingColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (meeting_id) DO UPDATE SET
    meeting_date = EXCLUDED.meeting_date, medium = EXCLUDED.medium, notes = EXCLUDED.notes,
    outcome = EXCLUDED.outcome, followup_date = EXCLUDED.followup_date, updated_at = EXCLUDED.updated_at`,
		ids[0], ids[1], ids[2], ids[3], m.MeetingDate, m.Medium, m.Notes,
		m.Outcome, timestamptz(m.FollowupDate), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("persisting meeting: %w", err)
	}
	return m.MeetingID, nil
}

func (mt *meetingsTable) Delete(ctx context.Context, id string) error {
	pgID, err := lookupID(id)
	if err != nil {
		return err
	}
	tag, err := mt.q.Exec(ctx, "DELETE FROM meetings WHERE meeting_id = $1", pgID)
	if err != nil {
		return fmt.Errorf("deleting meeting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (mt *meetingsTable) FetchByContact(ctx context.Context, contactID string) ([]*types.Meeting, error) {
	return mt.fetch(ctx, "SELECT "+meetingColumns+" FROM meetings WHERE contact_id = $1"+meetingOrder, contactID)
}

func (mt *meetingsTable) FetchByUser(ctx context.Context, userID string) ([]*types.Meeting, error) {
	return mt.fetch(ctx, "SELECT "+meetingColumns+" FROM meetings WHERE user_id = $1"+meetingOrder, userID)
}

func (mt *meetingsTable) DeleteByContact(ctx context.Context, contactID string) (int, error) {
	pgID, err := lookupID(contactID)
	if err != nil {
		return 0, nil
	}
	tag, err := mt.q.Exec(ctx, "DELETE FROM meetings WHERE contact_id = $1", pgID)
	if err != nil {
		return 0, fmt.Errorf("deleting meetings of contact: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (mt *meetingsTable) fetch(ctx context.Context, query, id string) ([]*types.Meeting, error) {
	pgID, err := lookupID(id)
	if err != nil {
		return nil, nil
	}
	rows, err := mt.q.Query(ctx, query, pgID)
	if err != nil {
		return nil, fmt.Errorf("querying meetings: %w", err)
	}
	return collect(rows, scanMeeting)
}

func scanMeeting(s scanner) (*types.Meeting, error) {
	var (
		m                                 types.Meeting
		id, contactID, userID, createdBy  pgtype.UUID
		meetingDate, createdAt, updatedAt pgtype.Timestamptz
		followup                          pgtype.Timestamptz
	)
	err := s.Scan(
		&id, &contactID, &userID, &createdBy, &meetingDate, &m.Medium, &m.Notes,
		&m.Outcome, &followup, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning meeting: %w", err)
	}
	m.MeetingID = toUUIDString(id)
	m.ContactID = toUUIDString(contactID)
	m.UserID = toUUIDString(userID)
	m.CreatedBy = toUUIDString(createdBy)
	m.MeetingDate = meetingDate.Time.UTC()
	m.FollowupDate = timeFromPg(followup)
	m.CreatedAt = createdAt.Time.UTC()
	m.UpdatedAt = updatedAt.Time.UTC()
	return &m, nil
}

// parseUUIDs parses every id, failing on the first malformed one.
func parseUUIDs(ids ...string) ([]pgtype.UUID, error) {
	out := make([]pgtype.UUID, len(ids))
	for i, id := range ids {
		pgID, err := parseUUID(id)
		if err != nil {
			return nil, err
		}
		out[i] = pgID
	}
	return out, nil
}
