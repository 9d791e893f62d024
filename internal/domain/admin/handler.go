package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicq/clinicq/internal/domain/visit"
	"github.com/clinicq/clinicq/internal/platform/auth"
	"github.com/clinicq/clinicq/pkg/pagination"
)

// Handler serves the admin dashboard and system-wide visit listing.
type Handler struct {
	analytics Analytics
	visits    *visit.Service
}

func NewHandler(analytics Analytics, visits *visit.Service) *Handler {
	return &Handler{analytics: analytics, visits: visits}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	adminGroup := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/analytics/dashboard", h.Dashboard)
	adminGroup.GET("/visits", h.ListVisits)
}

func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.analytics.Dashboard(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListVisits(c echo.Context) error {
	var status *visit.Status
	if raw := c.QueryParam("status"); raw != "" {
		s := visit.Status(raw)
		if !s.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
		status = &s
	}
	pg := pagination.FromContext(c)
	items, total, err := h.visits.List(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	snaps := make([]*visit.Snapshot, 0, len(items))
	for _, v := range items {
		snaps = append(snaps, visit.NewSnapshot(v))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(snaps, total, pg.Limit, pg.Offset))
}
