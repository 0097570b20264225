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

type contactsTable struct {
	q querier
}

const contactColumns = `contact_id, owner_id, name, emails, phones, whatsapp_number, instagram_handle,
company, tags, address, notes, birthday, anniversary, profile_picture, last_contacted_at,
created_at, updated_at`

func (ct *contactsTable) Get(ctx context.Context, id string) (*types.Contact, error) {
	pgID, err := lookupID(id)
	if err != nil {
		return nil, err
	}
	return scanContact(ct.q.QueryRow(ctx, "SELECT "+contactColumns+" FROM contacts WHERE contact_id = $1", pgID))
}

func (ct *contactsTable) Set(ctx context.Context, c *types.Contact) (string, error) {
	if c == nil {
		return "", types.ErrInvalidData
	}
	if err := c.Validate(); err != nil {
		return "", err
	}
	ownerID, err := parseUUID(c.OwnerID)
	if err != nil {
		return "", err
	}
	if c.ContactID == "" {
		c.ContactID = generateUUID()
	}
	id, err := parseUUID(c.ContactID)
	if err != nil {
		return "", err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	c.CreatedAt = truncate(c.CreatedAt)
	c.UpdatedAt = truncate(c.UpdatedAt)
	c.LastContactedAt = truncatePtr(c.LastContactedAt)

	_, err = ct.q.Exec(ctx, `INSERT INTO contacts (`+contactColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (contact_id) DO UPDATE SET
    name = EXCLUDED.name, emails = EXCLUDED.emails, phones = EXCLUDED.phones,
    whatsapp_number = EXCLUDED.whatsapp_number, instagram_handle = EXCLUDED.instagram_handle,
    company = EXCLUDED.company, tags = EXCLUDED.tags, address = EXCLUDED.address,
    notes = EXCLUDED.notes, birthday = EXCLUDED.birthday, anniversary = EXCLUDED.anniversary,
    profile_picture = EXCLUDED.profile_picture, last_contacted_at = EXCLUDED.last_contacted_at,
    updated_at = EXCLUDED.updated_at`,
		id, ownerID, c.Name, list(c.Emails), list(c.Phones), c.WhatsappNumber, c.InstagramHandle,
		c.Company, list(c.Tags), c.Address, c.Notes, date(c.Birthday), date(c.Anniversary),
		c.ProfilePicture, timestamptz(c.LastContactedAt), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("persisting contact: %w", err)
	}
	return c.ContactID, nil
}

func (ct *contactsTable) Delete(ctx context.Context, id string) error {
	pgID, err := lookupID(id)
	if err != nil {
		return err
	}
	tag, err := ct.q.Exec(ctx, "DELETE FROM contacts WHERE contact_id = $1", pgID)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (ct *contactsTable) FetchByOwner(ctx context.Context, ownerID string) ([]*types.Contact, error) {
	pgID, err := lookupID(ownerID)
	if err != nil {
		return nil, nil
	}
	rows, err := ct.q.Query(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE owner_id = $1 ORDER BY lower(name), contact_id",
		pgID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	return collect(rows, scanContact)
}

func scanContact(s scanner) (*types.Contact, error) {
	var (
		c                     types.Contact
		id, ownerID           pgtype.UUID
		emails, phones, tags  []string
		birthday, anniversary pgtype.Date
		lastContacted         pgtype.Timestamptz
		createdAt, updatedAt  pgtype.Timestamptz
	)
	err := s.Scan(
		&id, &ownerID, &c.Name, &emails, &phones, &c.WhatsappNumber, &c.InstagramHandle,
		&c.Company, &tags, &c.Address, &c.Notes, &birthday, &anniversary, &c.ProfilePicture,
		&lastContacted, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning contact: %w", err)
	}
	c.ContactID = toUUIDString(id)
	c.OwnerID = toUUIDString(ownerID)
	c.Emails = listFromPg(emails)
	c.Phones = listFromPg(phones)
	c.Tags = listFromPg(tags)
	c.Birthday = dateFromPg(birthday)
	c.Anniversary = dateFromPg(anniversary)
	c.LastContactedAt = timeFromPg(lastContacted)
	c.CreatedAt = createdAt.Time.UTC()
	c.UpdatedAt = updatedAt.Time.UTC()
	return &c, nil
}
