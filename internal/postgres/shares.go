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

type sharesTable struct {
	q querier
}

const shareColumns = `share_id, contact_id, owner_user_id, shared_with_user_id, permission,
expires_at, note, created_at`

const shareOrder = " ORDER BY created_at DESC, share_id DESC"

func (st *sharesTable) Get(ctx context.Context, id string) (*types.Share, error) {
	pgID, err := lookupID(id)
	if err != nil {
		return nil, err
	}
	return scanShare(st.q.QueryRow(ctx, "SELECT "+shareColumns+" FROM shares WHERE share_id = $1", pgID))
}

func (st *sharesTable) Set(ctx context.Context, s *types.Share) (string, error) {
	if s == nil {
		return "", types.ErrInvalidData
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
	ids, err := parseUUIDs(s.ShareID, s.ContactID, s.OwnerUserID, s.SharedWithUserID)
	if err != nil {
		return "", err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.CreatedAt = truncate(s.CreatedAt)
	s.ExpiresAt = truncatePtr(s.ExpiresAt)

	_, err = st.q.Exec(ctx, `INSERT INTO shares (`+shareColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (share_id) DO UPDATE SET
    permission = EXCLUDED.permission, expires_at = EXCLUDED.expires_at, note = EXCLUDED.note`,
		ids[0], ids[1], ids[2], ids[3], s.Permission, timestamptz(s.ExpiresAt), s.Note, s.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return "", types.ErrDuplicateShare
		}
		return "", fmt.Errorf("persisting share: %w", err)
	}
	return s.ShareID, nil
}

func (st *sharesTable) Delete(ctx context.Context, id string) error {
	pgID, err := lookupID(id)
	if err != nil {
		return err
	}
	tag, err := st.q.Exec(ctx, "DELETE FROM shares WHERE share_id = $1", pgID)
	if err != nil {
		return fmt.Errorf("deleting share: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (st *sharesTable) GetByContactAndRecipient(ctx context.Context, contactID, recipientID string) (*types.Share, error) {
	cID, err := lookupID(contactID)
	if err != nil {
		return nil, err
	}
	rID, err := lookupID(recipientID)
	if err != nil {
		return nil, err
	}
	return scanShare(st.q.QueryRow(ctx,
		"SELECT "+shareColumns+" FROM shares WHERE contact_id = $1 AND shared_with_user_id = $2",
		cID, rID,
	))
}

func (st *sharesTable) ExistsByContactAndRecipient(ctx context.Context, contactID, recipientID string) (bool, error) {
	_, err := st.GetByContactAndRecipient(ctx, contactID, recipientID)
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidID) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking share existence: %w", err)
	}
	return true, nil
}

func (st *sharesTable) FetchByOwner(ctx context.Context, ownerID string) ([]*types.Share, error) {
	return st.fetch(ctx, "SELECT "+shareColumns+" FROM shares WHERE owner_user_id = $1"+shareOrder, ownerID)
}

func (st *sharesTable) FetchActiveByRecipient(ctx context.Context, recipientID string, now time.Time) ([]*types.Share, error) {
	return st.fetch(ctx,
		"SELECT "+shareColumns+" FROM shares WHERE shared_with_user_id = $1 AND (expires_at IS NULL OR expires_at >= $2)"+shareOrder,
		recipientID, now,
	)
}

func (st *sharesTable) FetchByContact(ctx context.Context, contactID string) ([]*types.Share, error) {
	return st.fetch(ctx, "SELECT "+shareColumns+" FROM shares WHERE contact_id = $1"+shareOrder, contactID)
}

func (st *sharesTable) DeleteByContact(ctx context.Context, contactID string) (int, error) {
	pgID, err := lookupID(contactID)
	if err != nil {
		return 0, nil
	}
	tag, err := st.q.Exec(ctx, "DELETE FROM shares WHERE contact_id = $1", pgID)
	if err != nil {
		return 0, fmt.Errorf("deleting shares of contact: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// fetch runs query with id as $1 followed by extra.
func (st *sharesTable) fetch(ctx context.Context, query, id string, extra ...any) ([]*types.Share, error) {
	pgID, err := lookupID(id)
	if err != nil {
		return nil, nil
	}
	rows, err := st.q.Query(ctx, query, append([]any{pgID}, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("querying shares: %w", err)
	}
	return collect(rows, scanShare)
}

func scanShare(sc scanner) (*types.Share, error) {
	var (
		s                                   types.Share
		id, contactID, ownerID, recipientID pgtype.UUID
		expiresAt, createdAt                pgtype.Timestamptz
	)
	err := sc.Scan(&id, &contactID, &ownerID, &recipientID, &s.Permission, &expiresAt, &s.Note, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning share: %w", err)
	}
	s.ShareID = toUUIDString(id)
	s.ContactID = toUUIDString(contactID)
	s.OwnerUserID = toUUIDString(ownerID)
	s.SharedWithUserID = toUUIDString(recipientID)
	s.ExpiresAt = timeFromPg(expiresAt)
	s.CreatedAt = createdAt.Time.UTC()
	return &s, nil
}
