package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrNotFound, http.StatusNotFound},
		{types.ErrRecipientNotFound, http.StatusNotFound},
		{types.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("edit: %w", types.ErrForbidden), http.StatusForbidden},
		{types.ErrAccessDenied, http.StatusForbidden},
		{types.ErrShareExpired, http.StatusGone},
		{types.ErrDuplicateShare, http.StatusConflict},
		{types.ErrEmailTaken, http.StatusConflict},
		{types.ErrInvalidCredentials, http.StatusUnauthorized},
		{types.ErrSelfShare, http.StatusBadRequest},
		{types.ErrInvalidPermission, http.StatusBadRequest},
		{types.ErrInvalidMedium, http.StatusBadRequest},
		{types.ErrInvalidName, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", types.ErrCascadeFailed, types.ErrNotFound), http.StatusInternalServerError},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHTTPError(t *testing.T) {
	var he *echo.HTTPError

	require.ErrorAs(t, httpError(errors.New("password=hunter2")), &he)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), he.Message)

	require.ErrorAs(t, httpError(types.ErrShareExpired), &he)
	assert.Equal(t, http.StatusGone, he.Code)
	assert.Equal(t, types.ErrShareExpired.Error(), he.Message)
	assert.ErrorIs(t, he, types.ErrShareExpired)

	passthrough := echo.NewHTTPError(http.StatusTeapot, "short and stout")
	assert.Same(t, passthrough, httpError(passthrough))
}
