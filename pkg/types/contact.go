package types

import (
	"strings"
	"time"
)

// Contact is a person tracked by its owner. OwnerID never changes after
// creation. LastContactedAt is written only by meeting creation.
type Contact struct {
	ContactID       string     `json:"contact_id"`
	OwnerID         string     `json:"owner_id"`
	Name            string     `json:"name"`
	Emails          []string   `json:"emails,omitempty"`
	Phones          []string   `json:"phones,omitempty"`
	WhatsappNumber  string     `json:"whatsapp_number,omitempty"`
	InstagramHandle string     `json:"instagram_handle,omitempty"`
	Company         string     `json:"company,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Address         string     `json:"address,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Birthday        *time.Time `json:"birthday,omitempty"`    // Calendar date; the year is ignored for recurrence.
	Anniversary     *time.Time `json:"anniversary,omitempty"` // Calendar date; the year is ignored for recurrence.
	ProfilePicture  string     `json:"profile_picture,omitempty"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Validate returns ErrInvalidName when the contact has no name.
func (c *Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidName
	}
	return nil
}

// HasTag reports whether the contact carries tag, ignoring case.
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
