package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderDismiss(t *testing.T) {
	r := &Reminder{Status: ReminderPending}
	assert.True(t, r.IsPending())

	assert.True(t, r.Dismiss(), "first dismiss changes status")
	assert.Equal(t, ReminderDismissed, r.Status)

	assert.False(t, r.Dismiss(), "second dismiss is a no-op")
	assert.Equal(t, ReminderDismissed, r.Status)
}

func TestParseMedium(t *testing.T) {
	got, err := ParseMedium("VIDEO_CALL")
	require.NoError(t, err)
	assert.Equal(t, MediumVideoCall, got)

	got, err = ParseMedium("in_person")
	require.NoError(t, err)
	assert.Equal(t, MediumInPerson, got)

	_, err = ParseMedium("carrier_pigeon")
	assert.ErrorIs(t, err, ErrInvalidMedium)
}

func TestMeetingValidate(t *testing.T) {
	date := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		meeting Meeting
		wantErr error
	}{
		{"valid", Meeting{ContactID: "c", MeetingDate: date, Medium: MediumSMS}, nil},
		{"missing contact", Meeting{MeetingDate: date, Medium: MediumSMS}, ErrInvalidID},
		{"missing date", Meeting{ContactID: "c", Medium: MediumSMS}, ErrInvalidData},
		{"bad medium", Meeting{ContactID: "c", MeetingDate: date, Medium: "fax"}, ErrInvalidMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meeting.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestContactValidate(t *testing.T) {
	assert.ErrorIs(t, (&Contact{Name: "  "}).Validate(), ErrInvalidName)
	assert.NoError(t, (&Contact{Name: "Ada"}).Validate())
}

func TestContactHasTag(t *testing.T) {
	c := &Contact{Tags: []string{"Family", "work"}}
	assert.True(t, c.HasTag("family"))
	assert.True(t, c.HasTag("WORK"))
	assert.False(t, c.HasTag("gym"))
}

func TestUserValidate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr error
	}{
		{"valid", User{Name: "Ada", Email: "ada@example.com"}, nil},
		{"empty name", User{Name: "", Email: "ada@example.com"}, ErrInvalidName},
		{"no at", User{Name: "Ada", Email: "ada.example.com"}, ErrInvalidEmail},
		{"no domain dot", User{Name: "Ada", Email: "ada@example"}, ErrInvalidEmail},
		{"space", User{Name: "Ada", Email: "a da@example.com"}, ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestIsUserError(t *testing.T) {
	assert.True(t, IsUserError(ErrNotFound))
	assert.True(t, IsUserError(ErrShareExpired))
	assert.False(t, IsUserError(ErrCascadeFailed))
	assert.False(t, IsUserError(ErrStoreDetached))
}

func TestClockNow(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	var c Clock = func() time.Time { return fixed }
	assert.Equal(t, fixed, c.Now())

	var nilClock Clock
	assert.False(t, nilClock.Now().IsZero())
}
