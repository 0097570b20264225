package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

var _ types.ShareTable = (*sharesTable)(nil)

type sharesTable struct {
	q querier
}

const shareColumns = `share_id, contact_id, owner_user_id, shared_with_user_id, permission,
expires_at, note, created_at`

const shareOrder = " ORDER BY created_at DESC, share_id DESC"

func (st *sharesTable) Get(ctx context.Context, id string) (*types.Share, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	row := st.q.QueryRowContext(ctx, "SELECT "+shareColumns+" FROM shares WHERE share_id = ?", id)
	return scanShare(row)
}

// Set inserts or updates a share. Only permission, expiry and note change on
// update; the (contact, recipient) pair is fixed at creation.
func (st *sharesTable) Set(ctx context.Context, s *types.Share) (string, error) {
	if s == nil {
		return "", types.ErrInvalidData
	}
	if s.ContactID == "" || s.OwnerUserID == "" || s.SharedWithUserID == "" {
		return "", types.ErrInvalidID
	}
	if s.Permission == "" {
		s.Permission = types.PermissionView
	}
	if !types.ValidPermission(s.Permission) {
		return "", types.ErrInvalidPermission
	}
	if s.ShareID == "" {
		s.ShareID = generateUUID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := st.q.ExecContext(ctx, `INSERT INTO shares (`+shareColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(share_id) DO UPDATE SET
    permission = excluded.permission, expires_at = excluded.expires_at, note = excluded.note`,
		s.ShareID, s.ContactID, s.OwnerUserID, s.SharedWithUserID, s.Permission,
		nullTime(s.ExpiresAt), s.Note, formatTime(s.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", types.ErrDuplicateShare
		}
		return "", fmt.Errorf("persisting share: %w", err)
	}
	return s.ShareID, nil
}

func (st *sharesTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := st.q.ExecContext(ctx, "DELETE FROM shares WHERE share_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting share: %w", err)
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

func (st *sharesTable) GetByContactAndRecipient(ctx context.Context, contactID, recipientID string) (*types.Share, error) {
	row := st.q.QueryRowContext(ctx,
		"SELECT "+shareColumns+" FROM shares WHERE contact_id = ? AND shared_with_user_id = ?",
		contactID, recipientID,
	)
	return scanShare(row)
}

func (st *sharesTable) ExistsByContactAndRecipient(ctx context.Context, contactID, recipientID string) (bool, error) {
	var one int
	err := st.q.QueryRowContext(ctx,
		"SELECT 1 FROM shares WHERE contact_id = ? AND shared_with_user_id = ?",
		contactID, recipientID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking share existence: %w", err)
	}
	return true, nil
}

func (st *sharesTable) FetchByOwner(ctx context.Context, ownerID string) ([]*types.Share, error) {
	return st.fetch(ctx, "SELECT "+shareColumns+" FROM shares WHERE owner_user_id = ?"+shareOrder, ownerID)
}

func (st *sharesTable) FetchActiveByRecipient(ctx context.Context, recipientID string, now time.Time) ([]*types.Share, error) {
	return st.fetch(ctx,
		"SELECT "+shareColumns+" FROM shares WHERE shared_with_user_id = ? AND (expires_at IS NULL OR expires_at >= ?)"+shareOrder,
		recipientID, formatTime(now),
	)
}

func (st *sharesTable) FetchByContact(ctx context.Context, contactID string) ([]*types.Share, error) {
	return st.fetch(ctx, "SELECT "+shareColumns+" FROM shares WHERE contact_id = ?"+shareOrder, contactID)
}

func (st *sharesTable) DeleteByContact(ctx context.Context, contactID string) (int, error) {
	res, err := st.q.ExecContext(ctx, "DELETE FROM shares WHERE contact_id = ?", contactID)
	if err != nil {
		return 0, fmt.Errorf("deleting shares of contact: %w", err)
	}
	return rowsAffected(res)
}

func (st *sharesTable) fetch(ctx context.Context, query string, args ...any) ([]*types.Share, error) {
	rows, err := st.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying shares: %w", err)
	}
	defer rows.Close()

	var shares []*types.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

func scanShare(sc scanner) (*types.Share, error) {
	var (
		s         types.Share
		expiresAt sql.NullString
		createdAt string
	)
	err := sc.Scan(
		&s.ShareID, &s.ContactID, &s.OwnerUserID, &s.SharedWithUserID, &s.Permission,
		&expiresAt, &s.Note, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning share: %w", err)
	}
	if s.ExpiresAt, err = parseNullTime(expiresAt); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &s, nil
}
