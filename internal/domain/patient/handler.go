package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicq/clinicq/internal/platform/auth"
	"github.com/clinicq/clinicq/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient endpoints. Registration goes on the
// unauthenticated group; the profile read requires a patient session and
// listing is admin-only.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/patients/register", h.Register)
	api.GET("/patients/:phone", h.Get, auth.RequireRole(auth.RolePatient))
	api.GET("/patients", h.List, auth.RequireRole(auth.RoleAdmin))
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	if !auth.CanActFor(c.Request().Context(), c.Param("phone")) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot act for another patient")
	}
	p, err := h.svc.Get(c.Request().Context(), c.Param("phone"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
