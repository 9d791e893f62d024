package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// PatientVerifier checks a patient's phone and PIN.
type PatientVerifier interface {
	VerifyPIN(ctx context.Context, phone, pin string) (bool, error)
}

// DoctorVerifier checks a doctor's id and PIN and returns the doctor's tier.
type DoctorVerifier interface {
	VerifyPIN(ctx context.Context, id uuid.UUID, pin string) (string, bool, error)
}

// Handler serves the login endpoints. Sessions are stateless: the signed
// token is the only session state.
type Handler struct {
	issuer   *Issuer
	patients PatientVerifier
	doctors  DoctorVerifier
	adminPIN string
}

func NewHandler(issuer *Issuer, patients PatientVerifier, doctors DoctorVerifier, adminPIN string) *Handler {
	return &Handler{issuer: issuer, patients: patients, doctors: doctors, adminPIN: adminPIN}
}

// RegisterRoutes mounts the login endpoints on an unauthenticated group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/patient-login", h.PatientLogin)
	g.POST("/auth/doctor-login", h.DoctorLogin)
	g.POST("/auth/admin-login", h.AdminLogin)
}

type tokenResponse struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
	Tier  string `json:"tier,omitempty"`
}

type patientLoginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

func (h *Handler) PatientLogin(c echo.Context) error {
	var req patientLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Phone == "" || req.PIN == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "phone and pin are required")
	}
	ok, err := h.patients.VerifyPIN(c.Request().Context(), req.Phone, req.PIN)
	if err != nil || !ok {
		// One response for bad phone and bad PIN.
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	token, err := h.issuer.Issue(req.Phone, RolePatient, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "issuing token")
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, Role: RolePatient})
}

type doctorLoginRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	PIN      string    `json:"pin"`
}

func (h *Handler) DoctorLogin(c echo.Context) error {
	var req doctorLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DoctorID == uuid.Nil || req.PIN == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id and pin are required")
	}
	tier, ok, err := h.doctors.VerifyPIN(c.Request().Context(), req.DoctorID, req.PIN)
	if err != nil || !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	token, err := h.issuer.Issue(req.DoctorID.String(), RoleDoctor, tier)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "issuing token")
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, Role: RoleDoctor, Tier: tier})
}

type adminLoginRequest struct {
	PIN string `json:"pin"`
}

func (h *Handler) AdminLogin(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if h.adminPIN == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "admin login disabled")
	}
	if subtle.ConstantTimeCompare([]byte(req.PIN), []byte(h.adminPIN)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	token, err := h.issuer.Issue("admin", RoleAdmin, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "issuing token")
	}
	return c.JSON(http.StatusOK, tokenResponse{Token: token, Role: RoleAdmin})
}
