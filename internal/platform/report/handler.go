package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medicare/emr/internal/platform/auth"
	"github.com/medicare/emr/internal/platform/blobstore"
	"github.com/medicare/emr/internal/platform/metrics"
)

// DataFetcher loads every record that belongs to a patient. It returns
// ErrPatientNotFound when the patient does not exist.
type DataFetcher interface {
	ReportInput(ctx context.Context, patientID uuid.UUID) (Input, error)
}

// Handler serves PDF reports for staff and for the patient portal.
type Handler struct {
	data    DataFetcher
	archive blobstore.BlobStore
	metrics *metrics.ReportMetrics
	logger  zerolog.Logger
	opts    []Option
}

// NewHandler builds a report handler. archive and m may be nil.
func NewHandler(data DataFetcher, archive blobstore.BlobStore, m *metrics.ReportMetrics, logger zerolog.Logger, opts ...Option) *Handler {
	return &Handler{
		data:    data,
		archive: archive,
		metrics: m,
		logger:  logger,
		opts:    append([]Option{WithLogger(logger)}, opts...),
	}
}

// RegisterRoutes mounts the report endpoints. limit, when set, throttles
// generation per user.
func (h *Handler) RegisterRoutes(api *echo.Group, limit echo.MiddlewareFunc) {
	staff := []echo.MiddlewareFunc{auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleNurse)}
	portal := []echo.MiddlewareFunc{auth.RequirePatient()}
	if limit != nil {
		staff = append(staff, limit)
		portal = append(portal, limit)
	}
	api.GET("/patients/:id/report", h.PatientReport, staff...)
	api.GET("/portal/report", h.PortalReport, portal...)
}

func (h *Handler) PatientReport(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return h.serve(c, id)
}

// PortalReport generates the report of the patient linked to the caller.
func (h *Handler) PortalReport(c echo.Context) error {
	id, ok := auth.PatientIDFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusForbidden, "no patient record linked to this account")
	}
	return h.serve(c, id)
}

func (h *Handler) serve(c echo.Context, patientID uuid.UUID) error {
	styleName := c.QueryParam("style")
	if styleName == "" {
		styleName = ClinicalStyle.Name
	}
	style, err := ParseStyle(styleName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	in, err := h.data.ReportInput(ctx, patientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	}

	start := time.Now()
	res, err := Generate(in, style, h.opts...)
	pages := 0
	if res != nil {
		pages = res.Pages
	}
	h.metrics.ObserveGeneration(style.Name, time.Since(start), pages, err)
	if err != nil {
		h.logger.Error().Err(err).Str("patient_id", patientID.String()).Str("style", style.Name).Msg("report generation failed")
		if errors.Is(err, ErrMissingPatientName) || errors.Is(err, ErrForeignRecord) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "report generation failed")
	}

	if id, ok := h.store(ctx, patientID, res); ok {
		c.Response().Header().Set("X-Report-Archive-ID", id)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.FileName))
	c.Response().Header().Set("X-Report-Pages", strconv.Itoa(res.Pages))
	return c.Blob(http.StatusOK, "application/pdf", res.Content)
}

// store archives a generated report. Archive failures are logged and do not
// fail the request.
func (h *Handler) store(ctx context.Context, patientID uuid.UUID, res *Result) (string, bool) {
	if h.archive == nil {
		return "", false
	}
	meta, err := h.archive.Upload(ctx, blobstore.BlobMetadata{
		FileName:    res.FileName,
		ContentType: "application/pdf",
		PatientID:   patientID.String(),
		Category:    blobstore.CategoryReport,
		CreatedBy:   auth.UserIDFromContext(ctx),
	}, bytes.NewReader(res.Content))
	h.metrics.ObserveArchive(err)
	if err != nil {
		h.logger.Warn().Err(err).Str("patient_id", patientID.String()).Msg("report archive failed")
		return "", false
	}
	return meta.ID, true
}
