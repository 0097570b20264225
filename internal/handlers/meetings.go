package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/rapport/internal/cascade"
	"github.com/mesh-intelligence/rapport/internal/meetings"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

// MeetingsHandler serves /meetings.
type MeetingsHandler struct {
	meetings    *meetings.Service
	coordinator *cascade.Coordinator
}

// MeetingRequest is the body for POST /meetings. MeetingDate defaults to
// now; dates accept YYYY-MM-DD or RFC 3339.
type MeetingRequest struct {
	ContactID    string `json:"contact_id"`
	MeetingDate  string `json:"meeting_date"`
	Medium       string `json:"medium"`
	Notes        string `json:"notes"`
	Outcome      string `json:"outcome"`
	FollowupDate string `json:"followup_date"`
}

// MeetingUpdateRequest is the body for PUT /meetings/:id. An empty
// followup_date clears it.
type MeetingUpdateRequest struct {
	MeetingDate  *string `json:"meeting_date"`
	Medium       *string `json:"medium"`
	Notes        *string `json:"notes"`
	Outcome      *string `json:"outcome"`
	FollowupDate *string `json:"followup_date"`
}

// NewMeetingsHandler creates a meetings handler.
func NewMeetingsHandler(meetingService *meetings.Service, coordinator *cascade.Coordinator) *MeetingsHandler {
	return &MeetingsHandler{
		meetings:    meetingService,
		coordinator: coordinator,
	}
}

// Register mounts the meeting routes.
func (h *MeetingsHandler) Register(e *echo.Echo) {
	group := e.Group("/meetings")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/followups", h.Followups)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List returns the meetings the caller owns.
func (h *MeetingsHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.meetings.ListMine(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Followups lists the caller's meetings with a follow-up date from today on.
func (h *MeetingsHandler) Followups(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.meetings.UpcomingFollowups(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Get returns a meeting on a contact the caller can read.
func (h *MeetingsHandler) Get(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	item, err := h.meetings.Get(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Create logs a meeting. VIEW_ADD recipients may log meetings on shared
// contacts.
func (h *MeetingsHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req MeetingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	meetingDate, err := parseTime("meeting_date", req.MeetingDate)
	if err != nil {
		return err
	}
	followup, err := parseTime("followup_date", req.FollowupDate)
	if err != nil {
		return err
	}
	m := &types.Meeting{
		ContactID:    req.ContactID,
		Medium:       req.Medium,
		Notes:        req.Notes,
		Outcome:      req.Outcome,
		FollowupDate: followup,
	}
	if meetingDate != nil {
		m.MeetingDate = *meetingDate
	}
	item, err := h.coordinator.CreateMeeting(c.Request().Context(), userID, m)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update edits a meeting's fields. Only the meeting's user may edit.
func (h *MeetingsHandler) Update(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var body MeetingUpdateRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	req := meetings.UpdateRequest{
		Medium:  body.Medium,
		Notes:   body.Notes,
		Outcome: body.Outcome,
	}
	if body.MeetingDate != nil {
		var t *time.Time
		if t, err = parseTime("meeting_date", *body.MeetingDate); err != nil {
			return err
		}
		if t == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "meeting_date cannot be empty")
		}
		req.MeetingDate = t
	}
	if body.FollowupDate != nil {
		if req.FollowupDate, err = parseTime("followup_date", *body.FollowupDate); err != nil {
			return err
		}
		req.ClearFollowup = req.FollowupDate == nil
	}
	item, err := h.meetings.Update(c.Request().Context(), userID, id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Delete removes a meeting and its follow-up reminder.
func (h *MeetingsHandler) Delete(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.coordinator.DeleteMeeting(c.Request().Context(), userID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
