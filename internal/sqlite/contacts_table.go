package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

var _ types.ContactTable = (*contactsTable)(nil)

type contactsTable struct {
	q querier
}

const contactColumns = `contact_id, owner_id, name, emails, phones, whatsapp_number, instagram_handle,
company, tags, address, notes, birthday, anniversary, profile_picture, last_contacted_at,
created_at, updated_at`

func (ct *contactsTable) Get(ctx context.Context, id string) (*types.Contact, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	row := ct.q.QueryRowContext(ctx, "SELECT "+contactColumns+" FROM contacts WHERE contact_id = ?", id)
	return scanContact(row)
}

// Set inserts or replaces the contact. OwnerID is never rewritten on update.
func (ct *contactsTable) Set(ctx context.Context, c *types.Contact) (string, error) {
	if c == nil {
		return "", types.ErrInvalidData
	}
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.OwnerID == "" {
		return "", types.ErrInvalidID
	}
	if c.ContactID == "" {
		c.ContactID = generateUUID()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	emails, err := encodeList(c.Emails)
	if err != nil {
		return "", fmt.Errorf("encoding emails: %w", err)
	}
	phones, err := encodeList(c.Phones)
	if err != nil {
		return "", fmt.Errorf("encoding phones: %w", err)
	}
	tags, err := encodeList(c.Tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}

	_, err = ct.q.ExecContext(ctx, `INSERT INTO contacts (`+contactColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(contact_id) DO UPDATE SET
    name = excluded.name, emails = excluded.emails, phones = excluded.phones,
    whatsapp_number = excluded.whatsapp_number, instagram_handle = excluded.instagram_handle,
    company = excluded.company, tags = excluded.tags, address = excluded.address,
    notes = excluded.notes, birthday = excluded.birthday, anniversary = excluded.anniversary,
    profile_picture = excluded.profile_picture, last_contacted_at = excluded.last_contacted_at,
    updated_at = excluded.updated_at`,
		c.ContactID, c.OwnerID, c.Name, emails, phones, c.WhatsappNumber, c.InstagramHandle,
		c.Company, tags, c.Address, c.Notes, nullDate(c.Birthday), nullDate(c.Anniversary),
		c.ProfilePicture, nullTime(c.LastContactedAt), formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting contact: %w", err)
	}
	return c.ContactID, nil
}

func (ct *contactsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	res, err := ct.q.ExecContext(ctx, "DELETE FROM contacts WHERE contact_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
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

func (ct *contactsTable) FetchByOwner(ctx context.Context, ownerID string) ([]*types.Contact, error) {
	rows, err := ct.q.QueryContext(ctx,
		"SELECT "+contactColumns+" FROM contacts WHERE owner_id = ? ORDER BY name COLLATE NOCASE, contact_id",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*types.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func scanContact(s scanner) (*types.Contact, error) {
	var (
		c                     types.Contact
		emails, phones, tags  string
		birthday, anniversary sql.NullString
		lastContacted         sql.NullString
		createdAt, updatedAt  string
	)
	err := s.Scan(
		&c.ContactID, &c.OwnerID, &c.Name, &emails, &phones, &c.WhatsappNumber, &c.InstagramHandle,
		&c.Company, &tags, &c.Address, &c.Notes, &birthday, &anniversary, &c.ProfilePicture,
		&lastContacted, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning contact: %w", err)
	}

	if c.Emails, err = decodeList(emails); err != nil {
		return nil, err
	}
	if c.Phones, err = decodeList(phones); err != nil {
		return nil, err
	}
	if c.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	if c.Birthday, err = parseNullDate(birthday); err != nil {
		return nil, err
	}
	if c.Anniversary, err = parseNullDate(anniversary); err != nil {
		return nil, err
	}
	if c.LastContactedAt, err = parseNullTime(lastContacted); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
