package visit

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	patientGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	patientGroup.POST("/patients/:phone/visits", h.CreateVisit)
	patientGroup.GET("/patients/:phone/visits", h.ListPatientVisits)
	patientGroup.GET("/visits/:id/queue", h.QueueStatus)

	doctorGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctorGroup.GET("/doctors/:id/queue", h.DoctorQueue)
	doctorGroup.GET("/visits/:id", h.GetVisit)
	doctorGroup.PUT("/visits/:id", h.UpdateVisit)
	doctorGroup.POST("/visits/:id/start", h.StartVisit)
}

// httpError maps domain sentinel errors to distinct HTTP statuses so UIs can
// tell "patient missing" apart from "pick another patient".
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTierMismatch), errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.PatientPhone = c.Param("phone")
	if !auth.CanActFor(c.Request().Context(), in.PatientPhone) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot act for another patient")
	}
	v, err := h.svc.CreateVisit(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, NewSnapshot(v))
}

func (h *Handler) ListPatientVisits(c echo.Context) error {
	if !auth.CanActFor(c.Request().Context(), c.Param("phone")) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot act for another patient")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), c.Param("phone"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	snaps := make([]*Snapshot, 0, len(items))
	for _, v := range items {
		snaps = append(snaps, NewSnapshot(v))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(snaps, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewSnapshot(v))
}

func (h *Handler) QueueStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	snap, err := h.svc.QueueStatus(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if !auth.CanActFor(c.Request().Context(), snap.PatientPhone) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot act for another patient")
	}
	return c.JSON(http.StatusOK, snap)
}

type startRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) StartVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	doctorID := req.DoctorID
	if auth.RoleFromContext(ctx) == auth.RoleDoctor {
		// Doctors claim as themselves; the session subject, not the
		// request body, decides who the visit is assigned to.
		sub, err := uuid.Parse(auth.SubjectFromContext(ctx))
		if err != nil {
			return echo.NewHTTPError(http.StatusForbidden, "session subject is not a doctor id")
		}
		if doctorID != uuid.Nil && doctorID != sub {
			return echo.NewHTTPError(http.StatusForbidden, "cannot claim for another doctor")
		}
		doctorID = sub
	}
	if doctorID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	v, err := h.svc.StartVisit(ctx, id, doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewSnapshot(v))
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.UpdateVisit(c.Request().Context(), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, NewSnapshot(v))
}

type doctorQueueResponse struct {
	Visits []*Snapshot `json:"visits"`
	QueueStats
}

func (h *Handler) DoctorQueue(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !auth.CanActFor(c.Request().Context(), doctorID.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot view another doctor's queue")
	}
	visits, stats, err := h.svc.DoctorQueue(c.Request().Context(), doctorID)
	if err != nil {
		return httpError(err)
	}
	snaps := make([]*Snapshot, 0, len(visits))
	for _, v := range visits {
		snaps = append(snaps, NewSnapshot(v))
	}
	return c.JSON(http.StatusOK, doctorQueueResponse{Visits: snaps, QueueStats: stats})
}
