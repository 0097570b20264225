package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// ErrorResponse is the standard API error body (message only).
type ErrorResponse struct {
	Message string `json:"message"`
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrCascadeFailed):
		return http.StatusInternalServerError
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrRecipientNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrForbidden), errors.Is(err, types.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, types.ErrShareExpired):
		return http.StatusGone
	case errors.Is(err, types.ErrDuplicateShare), errors.Is(err, types.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrSelfShare),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidEmail),
		errors.Is(err, types.ErrInvalidPermission),
		errors.Is(err, types.ErrInvalidMedium):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// httpError converts a service error into an echo error. Errors that are
// already echo errors pass through.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, types.ErrCascadeFailed) {
		msg = http.StatusText(status)
	}
	return echo.NewHTTPError(status, msg).SetInternal(err)
}
