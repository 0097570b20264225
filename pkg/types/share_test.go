package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry never expires", nil, false},
		{"expiry in the past", &past, true},
		{"expiry exactly now is still active", &now, false},
		{"expiry in the future", &future, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Share{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.IsExpired(now))
			assert.Equal(t, !tt.want, s.IsActive(now))
		})
	}
}

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"", PermissionView, nil},
		{"VIEW", PermissionView, nil},
		{"view_add", PermissionViewAdd, nil},
		{" VIEW_ADD ", PermissionViewAdd, nil},
		{"EDIT", "", ErrInvalidPermission},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePermission(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
