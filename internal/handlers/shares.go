package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/rapport/internal/shares"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// SharesHandler serves /shares.
type SharesHandler struct {
	shares *shares.Manager
}

// SharedContactResponse is a contact read through a share.
type SharedContactResponse struct {
	Contact    *types.Contact `json:"contact"`
	Access     string         `json:"access"`
	Permission string         `json:"permission,omitempty"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
}

// NewSharesHandler creates a shares handler.
func NewSharesHandler(manager *shares.Manager) *SharesHandler {
	return &SharesHandler{shares: manager}
}

// Register mounts the share routes.
func (h *SharesHandler) Register(e *echo.Echo) {
	group := e.Group("/shares")
	group.POST("", h.Create)
	group.GET("/by-me", h.ByMe)
	group.GET("/with-me", h.WithMe)
	group.GET("/contact/:contact_id", h.Contact)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Revoke)
}

// Create grants another user access to a contact the caller owns.
func (h *SharesHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req shares.CreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.shares.Create(c.Request().Context(), userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update changes a grant's permission, expiry or note.
func (h *SharesHandler) Update(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req shares.UpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.shares.Update(c.Request().Context(), userID, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Revoke deletes a grant the caller issued.
func (h *SharesHandler) Revoke(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.shares.Revoke(c.Request().Context(), userID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ByMe lists every grant the caller issued, expired ones included.
func (h *SharesHandler) ByMe(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.shares.ListSharedByMe(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// WithMe lists the grants to the caller that are active now.
func (h *SharesHandler) WithMe(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.shares.ListSharedWithMe(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Contact reads a contact through the caller's share, or as its owner.
func (h *SharesHandler) Contact(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	contactID, err := requireParam(c, "contact_id")
	if err != nil {
		return err
	}
	a, err := h.shares.SharedContact(c.Request().Context(), userID, contactID)
	if err != nil {
		return httpError(err)
	}
	resp := SharedContactResponse{
		Contact:    a.Contact,
		Access:     a.Level.String(),
		Permission: a.Permission,
	}
	if a.Share != nil {
		resp.ExpiresAt = a.Share.ExpiresAt
	}
	return c.JSON(http.StatusOK, resp)
}
