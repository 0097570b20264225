package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/rapport/internal/dashboard"
)

// DashboardHandler serves /dashboard.
type DashboardHandler struct {
	dashboard *dashboard.Service
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service *dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: service}
}

// Register mounts GET /dashboard.
func (h *DashboardHandler) Register(e *echo.Echo) {
	e.GET("/dashboard", h.Summary)
}

// Summary returns the caller's dashboard rollups.
func (h *DashboardHandler) Summary(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	sum, err := h.dashboard.Summary(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sum)
}
