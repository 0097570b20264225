package types

import (
	"strings"
	"time"
)

// Meeting media.
const (
	MediumPhoneCall   = "phone_call"
	MediumWhatsapp    = "whatsapp"
	MediumEmail       = "email"
	MediumSMS         = "sms"
	MediumInPerson    = "in_person"
	MediumVideoCall   = "video_call"
	MediumInstagramDM = "instagram_dm"
	MediumOther       = "other"
)

// validMedia is the set of recognized meeting media.
var validMedia = map[string]bool{
	MediumPhoneCall:   true,
	MediumWhatsapp:    true,
	MediumEmail:       true,
	MediumSMS:         true,
	MediumInPerson:    true,
	MediumVideoCall:   true,
	MediumInstagramDM: true,
	MediumOther:       true,
}

// Meeting is a logged interaction with a contact. UserID is always the
// contact's owner; CreatedBy is whoever logged it.
type Meeting struct {
	MeetingID    string     `json:"meeting_id"`
	ContactID    string     `json:"contact_id"`
	UserID       string     `json:"user_id"`
	CreatedBy    string     `json:"created_by"`
	MeetingDate  time.Time  `json:"meeting_date"`
	Medium       string     `json:"medium"`
	Notes        string     `json:"notes,omitempty"`
	Outcome      string     `json:"outcome,omitempty"`
	FollowupDate *time.Time `json:"followup_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ValidMedium reports whether m is a recognized medium.
func ValidMedium(m string) bool {
	return validMedia[m]
}

// ParseMedium accepts either the stored form ("video_call") or the
// upper-case form ("VIDEO_CALL") and returns the stored form.
func ParseMedium(s string) (string, error) {
	m := strings.ToLower(strings.TrimSpace(s))
	if !validMedia[m] {
		return "", ErrInvalidMedium
	}
	return m, nil
}

// Validate checks that the meeting names a contact, a date and a medium.
func (m *Meeting) Validate() error {
	if m.ContactID == "" {
		return ErrInvalidID
	}
	if m.MeetingDate.IsZero() {
		return ErrInvalidData
	}
	if !validMedia[m.Medium] {
		return ErrInvalidMedium
	}
	return nil
}
