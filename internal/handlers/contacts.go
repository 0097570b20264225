package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/rapport/internal/cascade"
	"github.com/mesh-intelligence/rapport/internal/contacts"
	"github.com/mesh-intelligence/rapport/internal/meetings"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// ContactsHandler serves /contacts.
type ContactsHandler struct {
	contacts    *contacts.Service
	meetings    *meetings.Service
	coordinator *cascade.Coordinator
}

// ContactRequest is the body for POST /contacts. Dates are YYYY-MM-DD.
type ContactRequest struct {
	Name            string   `json:"name"`
	Emails          []string `json:"emails"`
	Phones          []string `json:"phones"`
	WhatsappNumber  string   `json:"whatsapp_number"`
	InstagramHandle string   `json:"instagram_handle"`
	Company         string   `json:"company"`
	Tags            []string `json:"tags"`
	Address         string   `json:"address"`
	Notes           string   `json:"notes"`
	Birthday        string   `json:"birthday"`
	Anniversary     string   `json:"anniversary"`
	ProfilePicture  string   `json:"profile_picture"`
}

// ContactUpdateRequest is the body for PUT /contacts/:id. Omitted fields are
// unchanged; an empty birthday or anniversary string clears the date.
type ContactUpdateRequest struct {
	Name            *string   `json:"name"`
	Emails          *[]string `json:"emails"`
	Phones          *[]string `json:"phones"`
	WhatsappNumber  *string   `json:"whatsapp_number"`
	InstagramHandle *string   `json:"instagram_handle"`
	Company         *string   `json:"company"`
	Tags            *[]string `json:"tags"`
	Address         *string   `json:"address"`
	Notes           *string   `json:"notes"`
	Birthday        *string   `json:"birthday"`
	Anniversary     *string   `json:"anniversary"`
	ProfilePicture  *string   `json:"profile_picture"`
}

// NewContactsHandler creates a contacts handler.
func NewContactsHandler(contactService *contacts.Service, meetingService *meetings.Service, coordinator *cascade.Coordinator) *ContactsHandler {
	return &ContactsHandler{
		contacts:    contactService,
		meetings:    meetingService,
		coordinator: coordinator,
	}
}

// Register mounts the contact routes.
func (h *ContactsHandler) Register(e *echo.Echo) {
	group := e.Group("/contacts")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.GET("/:id/meetings", h.Meetings)
}

// List returns the caller's contacts; ?q= filters by name.
func (h *ContactsHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.contacts.Search(c.Request().Context(), userID, strings.TrimSpace(c.QueryParam("q")))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Get returns a contact the caller owns or holds an active share for.
func (h *ContactsHandler) Get(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	item, err := h.contacts.Get(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Create adds a contact owned by the caller along with its date reminders.
func (h *ContactsHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req ContactRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	birthday, err := parseTime("birthday", req.Birthday)
	if err != nil {
		return err
	}
	anniversary, err := parseTime("anniversary", req.Anniversary)
	if err != nil {
		return err
	}
	item, err := h.coordinator.CreateContact(c.Request().Context(), userID, &types.Contact{
		Name:            req.Name,
		Emails:          req.Emails,
		Phones:          req.Phones,
		WhatsappNumber:  req.WhatsappNumber,
		InstagramHandle: req.InstagramHandle,
		Company:         req.Company,
		Tags:            req.Tags,
		Address:         req.Address,
		Notes:           req.Notes,
		Birthday:        birthday,
		Anniversary:     anniversary,
		ProfilePicture:  req.ProfilePicture,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update changes the fields present in the body. Only the owner may edit.
func (h *ContactsHandler) Update(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var body ContactUpdateRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	req := contacts.UpdateRequest{
		Name:            body.Name,
		Emails:          body.Emails,
		Phones:          body.Phones,
		WhatsappNumber:  body.WhatsappNumber,
		InstagramHandle: body.InstagramHandle,
		Company:         body.Company,
		Tags:            body.Tags,
		Address:         body.Address,
		Notes:           body.Notes,
		ProfilePicture:  body.ProfilePicture,
	}
	if body.Birthday != nil {
		if req.Birthday, err = parseTime("birthday", *body.Birthday); err != nil {
			return err
		}
		req.ClearBirthday = req.Birthday == nil
	}
	if body.Anniversary != nil {
		if req.Anniversary, err = parseTime("anniversary", *body.Anniversary); err != nil {
			return err
		}
		req.ClearAnniversary = req.Anniversary == nil
	}
	item, err := h.contacts.Update(c.Request().Context(), userID, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Delete removes the contact with its meetings, reminders and shares.
func (h *ContactsHandler) Delete(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.coordinator.DeleteContact(c.Request().Context(), userID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Meetings lists the contact's meetings for any reader of the contact.
func (h *ContactsHandler) Meetings(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	items, err := h.meetings.ListByContact(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}
