package portal

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medicare/emr/internal/platform/auth"
	"github.com/medicare/emr/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the portal routes. The report download
// (/portal/report) is registered by the report handler.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/portal", auth.RequirePatient())
	g.GET("/me", h.Me)
	g.GET("/prescriptions", h.ListPrescriptions)
	g.GET("/treatments", h.ListTreatments)
	g.GET("/appointments", h.ListAppointments)
}

func (h *Handler) Me(c echo.Context) error {
	patientID, err := linkedPatient(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Profile(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient record not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	patientID, err := linkedPatient(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Prescriptions(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListTreatments(c echo.Context) error {
	patientID, err := linkedPatient(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Treatments(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListAppointments(c echo.Context) error {
	patientID, err := linkedPatient(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.Appointments(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// linkedPatient returns the patient record bound to the caller's token.
// The id never comes from the request.
func linkedPatient(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.PatientIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "account is not linked to a patient record")
	}
	return id, nil
}
