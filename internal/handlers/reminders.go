package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/rapport/internal/reminders"
)

// RemindersHandler serves /reminders.
type RemindersHandler struct {
	scheduler    *reminders.Scheduler
	upcomingDays int
}

// NewRemindersHandler creates a reminders handler. upcomingDays is the
// window used when /reminders/upcoming has no ?days=.
func NewRemindersHandler(scheduler *reminders.Scheduler, upcomingDays int) *RemindersHandler {
	return &RemindersHandler{scheduler: scheduler, upcomingDays: upcomingDays}
}

// Register mounts the reminder routes.
func (h *RemindersHandler) Register(e *echo.Echo) {
	group := e.Group("/reminders")
	group.GET("", h.List)
	group.GET("/upcoming", h.Upcoming)
	group.POST("/:id/dismiss", h.Dismiss)
}

// List returns the caller's pending reminders.
func (h *RemindersHandler) List(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	items, err := h.scheduler.ListPending(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Upcoming returns birthdays, anniversaries and follow-ups in the next
// ?days= days.
func (h *RemindersHandler) Upcoming(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	days, err := queryInt(c, "days", h.upcomingDays)
	if err != nil {
		return err
	}
	items, err := h.scheduler.Upcoming(c.Request().Context(), userID, days)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Dismiss marks one of the caller's reminders as dismissed.
func (h *RemindersHandler) Dismiss(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	item, err := h.scheduler.Dismiss(c.Request().Context(), userID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, item)
}
